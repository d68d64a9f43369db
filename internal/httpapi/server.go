// Package httpapi exposes the chat and todo surface over HTTP. The chat turn
// endpoint is where a saved negotiation actually becomes a stored todo, so a
// storage failure surfaces to the client instead of vanishing inside the
// engine.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/jihoonhan/dolbomi/internal/chat"
	"github.com/jihoonhan/dolbomi/internal/config"
	"github.com/jihoonhan/dolbomi/internal/observability"
	"github.com/jihoonhan/dolbomi/internal/todos"
)

// Engine is the turn-handling half of the chat package, abstracted so
// handler tests can script outcomes.
type Engine interface {
	HandleTurn(ctx context.Context, userID, conversationID, message string) chat.TurnResult
}

type Server struct {
	cfg      config.Config
	engine   Engine
	store    todos.Store
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, engine Engine, store todos.Store, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		engine:  engine,
		store:   store,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browsers may open the chat socket unless
				// explicitly relaxed; non-browser clients omit Origin.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat/turn", s.handleChatTurn)
	r.Get("/v1/chat/ws", s.handleChatWS)

	r.Post("/v1/todos", s.handleCreateTodo)
	r.Get("/v1/todos/past", s.handleListTodos(listPast))
	r.Get("/v1/todos/today", s.handleListTodos(listToday))
	r.Get("/v1/todos/future", s.handleListTodos(listFuture))
	r.Get("/v1/todos/completed", s.handleListTodos(listCompleted))
	r.Patch("/v1/todos/complete", s.handleToggleComplete)
	r.Patch("/v1/todos/{num}", s.handleUpdateTodo)
	r.Delete("/v1/todos/{num}", s.handleDeleteTodo)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"todo_store": storeMode(s.store),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ready",
		"todo_store": storeMode(s.store),
	})
}

func storeMode(s todos.Store) string {
	switch s.(type) {
	case *todos.PostgresStore:
		return "postgres"
	case *todos.InMemoryStore:
		return "memory"
	default:
		return "custom"
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
