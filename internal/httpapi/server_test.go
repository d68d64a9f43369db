package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jihoonhan/dolbomi/internal/chat"
	"github.com/jihoonhan/dolbomi/internal/config"
	"github.com/jihoonhan/dolbomi/internal/todos"
)

type fakeEngine struct {
	result chat.TurnResult
	gotMsg string
}

func (f *fakeEngine) HandleTurn(_ context.Context, _, _, message string) chat.TurnResult {
	f.gotMsg = message
	return f.result
}

func newTestServer(engine Engine) (*Server, *todos.InMemoryStore) {
	store := todos.NewInMemoryStore()
	cfg := config.Config{Timezone: "Asia/Seoul"}
	return New(cfg, engine, store, nil), store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatTurnSavedPersistsTodo(t *testing.T) {
	engine := &fakeEngine{result: chat.TurnResult{
		Step:    chat.StepSaved,
		HasTodo: true,
		Task:    "병원 가기",
		Date:    "2099-08-30",
		Time:    "10:00",
	}}
	srv, store := newTestServer(engine)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/v1/chat/turn", map[string]any{
		"user_id": "u1",
		"message": "응",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp turnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ConversationID == "" {
		t.Fatalf("conversation_id not minted")
	}
	if resp.Todo == nil || resp.Todo.Num != 1 || resp.Todo.Task != "병원 가기" {
		t.Fatalf("todo = %+v", resp.Todo)
	}

	saved, err := store.ListFutureIncomplete(context.Background(), "u1", time.Now())
	if err != nil {
		t.Fatalf("ListFutureIncomplete() error = %v", err)
	}
	if len(saved) != 1 || saved[0].DueTime == nil || *saved[0].DueTime != "10:00" {
		t.Fatalf("stored todos = %+v", saved)
	}
}

func TestChatTurnNonSavedDoesNotPersist(t *testing.T) {
	engine := &fakeEngine{result: chat.TurnResult{Step: chat.StepSuggest, Task: "병원 가기", Response: "등록해 둘까요?"}}
	srv, store := newTestServer(engine)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/v1/chat/turn", map[string]any{
		"user_id":         "u1",
		"conversation_id": "c1",
		"message":         "내일 병원 가야 해",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp turnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ConversationID != "c1" {
		t.Fatalf("conversation_id = %q, want caller's c1", resp.ConversationID)
	}
	if resp.Todo != nil {
		t.Fatalf("todo persisted for suggest step: %+v", resp.Todo)
	}
	if got, err := store.ListCompleted(context.Background(), "u1"); err != nil || len(got) != 0 {
		t.Fatalf("store not empty: %v, %v", got, err)
	}
}

func TestChatTurnValidation(t *testing.T) {
	srv, _ := newTestServer(&fakeEngine{})
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/v1/chat/turn", map[string]any{"message": "hi"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing user_id status = %d, want 400", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/v1/chat/turn", map[string]any{"user_id": "u1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing message status = %d, want 400", rec.Code)
	}
}

func TestCreateAndListTodos(t *testing.T) {
	srv, _ := newTestServer(&fakeEngine{})
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/v1/todos", map[string]any{
		"user_id":  "u1",
		"task":     "장보기",
		"due_date": "2099-01-02",
		"due_time": "09:30",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/todos", map[string]any{
		"user_id":  "u1",
		"task":     "잘못된 날짜",
		"due_date": "2099-13-40",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/todos/future?user_id=u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listResp struct {
		Todos []todos.Todo `json:"todos"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listResp.Todos) != 1 || listResp.Todos[0].Task != "장보기" {
		t.Fatalf("todos = %+v", listResp.Todos)
	}
}

func TestToggleCompleteBatch(t *testing.T) {
	srv, store := newTestServer(&fakeEngine{})
	router := srv.Router()

	a, _ := store.Create(context.Background(), "u1", "하나", "2099-01-02", nil)
	b, _ := store.Create(context.Background(), "u1", "둘", "2099-01-02", nil)

	rec := doJSON(t, router, http.MethodPatch, "/v1/todos/complete", map[string]any{
		"user_id": "u1",
		"nums":    []int{a.Num, b.Num, 99},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Todos   []todos.Todo `json:"todos"`
		Missing []int        `json:"missing"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Todos) != 2 || !resp.Todos[0].IsCompleted || !resp.Todos[1].IsCompleted {
		t.Fatalf("todos = %+v", resp.Todos)
	}
	if len(resp.Missing) != 1 || resp.Missing[0] != 99 {
		t.Fatalf("missing = %v", resp.Missing)
	}
}

func TestUpdateAndDeleteTodo(t *testing.T) {
	srv, store := newTestServer(&fakeEngine{})
	router := srv.Router()

	_, _ = store.Create(context.Background(), "u1", "병원", "2099-01-02", nil)

	rec := doJSON(t, router, http.MethodPatch, "/v1/todos/1", map[string]any{
		"user_id":  "u1",
		"task":     "치과",
		"due_time": "11:00",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var updated todos.Todo
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Task != "치과" || updated.DueTime == nil || *updated.DueTime != "11:00" {
		t.Fatalf("updated = %+v", updated)
	}

	rec = doJSON(t, router, http.MethodDelete, "/v1/todos/1?user_id=u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodDelete, "/v1/todos/1?user_id=u1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(&fakeEngine{})
	router := srv.Router()

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, router, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, rec.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		if body["todo_store"] != "memory" {
			t.Fatalf("%s todo_store = %v", path, body["todo_store"])
		}
	}
}
