package todos

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("todo not found")
	// ErrNumberConflict means compact numbering kept colliding under
	// concurrent creates. This is surfaced, never swallowed: exhausting the
	// retries points at a real uniqueness problem.
	ErrNumberConflict = errors.New("todo number assignment conflict")
)

// maxCreateRetries bounds the recompute-and-retry loop on number conflicts.
const maxCreateRetries = 5

// Todo is one committed task. (OwnerID, Num) is the identity; Num is the
// smallest integer unused for that owner at creation time, so numbers freed
// by deletes are reclaimed. Dates are civil dates in the service timezone,
// serialized 2006-01-02; DueTime is 24-hour HH:MM and nil when the user
// never gave a time.
type Todo struct {
	OwnerID        string     `json:"owner_id"`
	Num            int        `json:"todo_num"`
	Task           string     `json:"task"`
	DueDate        string     `json:"due_date"`
	DueTime        *string    `json:"due_time"`
	IsCompleted    bool       `json:"is_completed"`
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// UpdateFields carries a partial edit; nil means leave unchanged.
type UpdateFields struct {
	Task    *string
	DueDate *string
	DueTime *string
}

// ReminderWindow is a half-open [start, end) due-timestamp window expressed
// as date+time pairs so a window that crosses midnight can be queried as two
// date-scoped conditions.
type ReminderWindow struct {
	StartDate string
	StartTime string
	EndDate   string
	EndTime   string
}

// SpansMidnight reports whether the window covers two calendar dates.
func (w ReminderWindow) SpansMidnight() bool {
	return w.StartDate != w.EndDate
}
