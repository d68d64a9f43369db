package httpapi

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jihoonhan/dolbomi/internal/chat"
	"github.com/jihoonhan/dolbomi/internal/todos"
)

type turnRequest struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

type turnResponse struct {
	ConversationID string `json:"conversation_id"`
	chat.TurnResult
	Todo *todos.Todo `json:"todo,omitempty"`
}

func (s *Server) handleChatTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "user_id is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "missing_message", "message is required")
		return
	}
	if strings.TrimSpace(req.ConversationID) == "" {
		req.ConversationID = uuid.NewString()
	}

	resp, err := s.runTurn(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "todo_save_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// runTurn executes the engine turn and, for a saved outcome, persists the
// todo. The error is a storage error only; the engine itself never fails.
func (s *Server) runTurn(ctx context.Context, req turnRequest) (turnResponse, error) {
	result := s.engine.HandleTurn(ctx, req.UserID, req.ConversationID, req.Message)
	resp := turnResponse{ConversationID: req.ConversationID, TurnResult: result}

	if result.Step != chat.StepSaved {
		return resp, nil
	}

	var dueTime *string
	if result.Time != "" {
		t := result.Time
		dueTime = &t
	}
	todo, err := s.store.Create(ctx, req.UserID, result.Task, result.Date, dueTime)
	if err != nil {
		log.Printf("httpapi: todo save failed user=%s task=%q: %v", req.UserID, result.Task, err)
		return turnResponse{}, err
	}
	if s.metrics != nil {
		s.metrics.TodosCreated.Inc()
	}
	resp.Todo = &todo
	return resp, nil
}

type wsInbound struct {
	Message string `json:"message"`
}

// handleChatWS serves the same turn loop over a websocket, one JSON message
// in, one turn response out.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "query parameter user_id is required")
		return
	}
	conversationID := strings.TrimSpace(r.URL.Query().Get("conversation_id"))
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
		return nil
	})

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
		if strings.TrimSpace(in.Message) == "" {
			continue
		}

		resp, err := s.runTurn(r.Context(), turnRequest{
			UserID:         userID,
			ConversationID: conversationID,
			Message:        in.Message,
		})
		if err != nil {
			resp = turnResponse{
				ConversationID: conversationID,
				TurnResult:     chat.TurnResult{Step: chat.StepNone, Response: "죄송해요, 일정을 저장하지 못했어요. 잠시 후 다시 말씀해 주세요."},
			}
		}
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}
