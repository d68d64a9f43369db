package todos

import (
	"context"
	"strings"
	"time"
)

// Store is the persisted todo table. List methods take now because "past"
// and "today" are relative to the service timezone, not the database's.
type Store interface {
	Create(ctx context.Context, ownerID, task, dueDate string, dueTime *string) (Todo, error)
	ListPastIncomplete(ctx context.Context, ownerID string, now time.Time) ([]Todo, error)
	ListTodayIncomplete(ctx context.Context, ownerID string, now time.Time) ([]Todo, error)
	ListFutureIncomplete(ctx context.Context, ownerID string, now time.Time) ([]Todo, error)
	ListCompleted(ctx context.Context, ownerID string) ([]Todo, error)
	ToggleComplete(ctx context.Context, ownerID string, num int) (Todo, error)
	Update(ctx context.Context, ownerID string, num int, fields UpdateFields) (Todo, error)
	Delete(ctx context.Context, ownerID string, num int) error

	// DueCandidates returns incomplete, unreminded todos with a set time
	// whose due timestamp falls inside the window.
	DueCandidates(ctx context.Context, w ReminderWindow) ([]Todo, error)
	// MarkReminderSent sets the watermark once; marking an already-marked
	// todo is a no-op.
	MarkReminderSent(ctx context.Context, ownerID string, num int, at time.Time) error

	Close() error
}

// NewStore creates a postgres-backed store when configured, otherwise in-memory.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}

// nextCompactNum returns the smallest positive integer missing from the
// ascending-sorted used list.
func nextCompactNum(used []int) int {
	expect := 1
	for _, n := range used {
		if n > expect {
			break
		}
		if n == expect {
			expect++
		}
	}
	return expect
}

// inWindow implements the half-open window check shared by both stores.
// ISO date and HH:MM strings compare correctly as plain strings.
func (w ReminderWindow) contains(dueDate string, dueTime *string) bool {
	if dueTime == nil {
		return false
	}
	if !w.SpansMidnight() {
		return dueDate == w.StartDate && *dueTime >= w.StartTime && *dueTime < w.EndTime
	}
	if dueDate == w.StartDate {
		return *dueTime >= w.StartTime
	}
	if dueDate == w.EndDate {
		return *dueTime < w.EndTime
	}
	return false
}
