// Package notify delivers reminder pushes to the user's devices through an
// external relay. Delivery is best effort; the caller decides what a partial
// failure means for its own bookkeeping.
package notify

import (
	"context"
	"log"
)

// Notification is one message for one user.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Result counts per-device outcomes for a single send. Deactivated devices
// had their registration revoked upstream and will not be retried.
type Result struct {
	Success     int `json:"success"`
	Failed      int `json:"failed"`
	Deactivated int `json:"deactivated"`
}

type Notifier interface {
	SendToUser(ctx context.Context, userID string, n Notification) (Result, error)
}

// New returns the relay-backed notifier when a relay URL is configured and a
// log-only notifier otherwise, so the reminder loop works on a laptop.
func New(relayURL, token string) Notifier {
	if relayURL == "" {
		return &LogNotifier{}
	}
	return NewRelayNotifier(relayURL, token)
}

// LogNotifier prints the notification instead of delivering it. It reports
// one success so reminder watermarks still advance in local runs.
type LogNotifier struct{}

func (n *LogNotifier) SendToUser(_ context.Context, userID string, msg Notification) (Result, error) {
	log.Printf("notify: (log only) user=%s title=%q body=%q", userID, msg.Title, msg.Body)
	return Result{Success: 1}, nil
}
