package nlu

import (
	"context"
	"fmt"
	"strings"
)

// MockClient provides deterministic local replies when no NLU backend is
// configured. JSON requests get an empty extraction so the chat path stays
// on ordinary conversation.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Complete(ctx context.Context, req Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if req.WantJSON {
		return `{"has_todo": false}`, nil
	}

	text := strings.TrimSpace(req.User)
	if text == "" {
		return "듣고 있어요.", nil
	}
	return fmt.Sprintf("네, 말씀하신 내용 잘 들었어요: %s", text), nil
}
