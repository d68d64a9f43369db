package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jihoonhan/dolbomi/internal/todos"
)

type createTodoRequest struct {
	UserID  string  `json:"user_id"`
	Task    string  `json:"task"`
	DueDate string  `json:"due_date"`
	DueTime *string `json:"due_time"`
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "user_id is required")
		return
	}
	if strings.TrimSpace(req.Task) == "" {
		respondError(w, http.StatusBadRequest, "missing_task", "task is required")
		return
	}
	if !validDate(req.DueDate) {
		respondError(w, http.StatusBadRequest, "invalid_due_date", "due_date must be YYYY-MM-DD")
		return
	}
	if req.DueTime != nil && !validClock(*req.DueTime) {
		respondError(w, http.StatusBadRequest, "invalid_due_time", "due_time must be HH:MM")
		return
	}

	todo, err := s.store.Create(r.Context(), req.UserID, strings.TrimSpace(req.Task), req.DueDate, req.DueTime)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "create_failed", err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.TodosCreated.Inc()
	}
	respondJSON(w, http.StatusCreated, todo)
}

type listView int

const (
	listPast listView = iota
	listToday
	listFuture
	listCompleted
)

func (s *Server) handleListTodos(view listView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if userID == "" {
			respondError(w, http.StatusBadRequest, "missing_user_id", "query parameter user_id is required")
			return
		}
		now := time.Now().In(s.cfg.Location())

		var (
			list []todos.Todo
			err  error
		)
		switch view {
		case listPast:
			list, err = s.store.ListPastIncomplete(r.Context(), userID, now)
		case listToday:
			list, err = s.store.ListTodayIncomplete(r.Context(), userID, now)
		case listFuture:
			list, err = s.store.ListFutureIncomplete(r.Context(), userID, now)
		case listCompleted:
			list, err = s.store.ListCompleted(r.Context(), userID)
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "list_failed", err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"todos": list})
	}
}

type toggleCompleteRequest struct {
	UserID string `json:"user_id"`
	Nums   []int  `json:"nums"`
}

// handleToggleComplete flips completion for a batch of numbers. Numbers that
// no longer exist are reported back instead of failing the whole batch.
func (s *Server) handleToggleComplete(w http.ResponseWriter, r *http.Request) {
	var req toggleCompleteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "user_id is required")
		return
	}
	if len(req.Nums) == 0 {
		respondError(w, http.StatusBadRequest, "missing_nums", "nums is required")
		return
	}

	updated := make([]todos.Todo, 0, len(req.Nums))
	missing := make([]int, 0)
	for _, num := range req.Nums {
		todo, err := s.store.ToggleComplete(r.Context(), req.UserID, num)
		if errors.Is(err, todos.ErrNotFound) {
			missing = append(missing, num)
			continue
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "toggle_failed", err.Error())
			return
		}
		updated = append(updated, todo)
	}
	respondJSON(w, http.StatusOK, map[string]any{"todos": updated, "missing": missing})
}

type updateTodoRequest struct {
	UserID  string  `json:"user_id"`
	Task    *string `json:"task"`
	DueDate *string `json:"due_date"`
	DueTime *string `json:"due_time"`
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	num, ok := todoNum(w, r)
	if !ok {
		return
	}
	var req updateTodoRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "user_id is required")
		return
	}
	if req.Task == nil && req.DueDate == nil && req.DueTime == nil {
		respondError(w, http.StatusBadRequest, "empty_update", "nothing to update")
		return
	}
	if req.Task != nil && strings.TrimSpace(*req.Task) == "" {
		respondError(w, http.StatusBadRequest, "invalid_task", "task must not be empty")
		return
	}
	if req.DueDate != nil && !validDate(*req.DueDate) {
		respondError(w, http.StatusBadRequest, "invalid_due_date", "due_date must be YYYY-MM-DD")
		return
	}
	if req.DueTime != nil && !validClock(*req.DueTime) {
		respondError(w, http.StatusBadRequest, "invalid_due_time", "due_time must be HH:MM")
		return
	}

	todo, err := s.store.Update(r.Context(), req.UserID, num, todos.UpdateFields{
		Task:    req.Task,
		DueDate: req.DueDate,
		DueTime: req.DueTime,
	})
	if errors.Is(err, todos.ErrNotFound) {
		respondError(w, http.StatusNotFound, "todo_not_found", "no such todo")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "update_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, todo)
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	num, ok := todoNum(w, r)
	if !ok {
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "query parameter user_id is required")
		return
	}

	err := s.store.Delete(r.Context(), userID, num)
	if errors.Is(err, todos.ErrNotFound) {
		respondError(w, http.StatusNotFound, "todo_not_found", "no such todo")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "delete_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": num})
}

func todoNum(w http.ResponseWriter, r *http.Request) (int, bool) {
	num, err := strconv.Atoi(chi.URLParam(r, "num"))
	if err != nil || num < 1 {
		respondError(w, http.StatusBadRequest, "invalid_todo_num", "todo number must be a positive integer")
		return 0, false
	}
	return num, true
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
