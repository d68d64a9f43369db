// Package nlu bridges the chat engine with the language-understanding
// backend. The backend returns best-effort free text with no schema
// guarantee; callers must parse defensively (see internal/extract).
package nlu

import (
	"context"
	"fmt"
	"strings"
)

// Request is the normalized prompt sent to the NLU backend.
type Request struct {
	System   string
	User     string
	WantJSON bool
}

// Client is the black-box natural-language call: text in, text out.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config controls client construction.
type Config struct {
	Mode    string
	APIKey  string
	BaseURL string
	Model   string
}

// New builds a client for the configured mode. "auto" picks OpenAI when an
// API key is present and falls back to the mock otherwise, so the service
// stays runnable on a laptop with no credentials.
func New(cfg Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewOpenAIClient(cfg), nil
		}
		return NewMockClient(), nil
	case "openai":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for openai mode")
		}
		return NewOpenAIClient(cfg), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported nlu mode %q", cfg.Mode)
	}
}
