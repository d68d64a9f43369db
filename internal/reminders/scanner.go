// Package reminders runs the periodic due-todo scan and pushes one reminder
// per todo, a fixed lead time before it is due.
package reminders

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jihoonhan/dolbomi/internal/notify"
	"github.com/jihoonhan/dolbomi/internal/observability"
	"github.com/jihoonhan/dolbomi/internal/todos"
)

type Scanner struct {
	store    todos.Store
	notifier notify.Notifier
	metrics  *observability.Metrics
	loc      *time.Location
	lead     time.Duration
}

func NewScanner(store todos.Store, notifier notify.Notifier, metrics *observability.Metrics, loc *time.Location, lead time.Duration) *Scanner {
	if loc == nil {
		loc = time.FixedZone("KST", 9*60*60)
	}
	return &Scanner{
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		loc:      loc,
		lead:     lead,
	}
}

// Scan finds todos due exactly lead from now and reminds their owners.
// A todo is marked reminded only after at least one device accepted the
// push, so a fully failed delivery is retried on a later scan. Per-todo
// failures never abort the run. Returns how many reminders went out.
func (s *Scanner) Scan(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.DueCandidates(ctx, s.window(now))
	if err != nil {
		return 0, fmt.Errorf("list due todos: %w", err)
	}

	sent := 0
	for _, todo := range due {
		res, err := s.notifier.SendToUser(ctx, todo.OwnerID, message(todo, s.lead))
		if err != nil {
			log.Printf("reminders: send failed owner=%s num=%d: %v", todo.OwnerID, todo.Num, err)
			s.failure()
			continue
		}
		if res.Success == 0 {
			log.Printf("reminders: no device accepted owner=%s num=%d (failed=%d deactivated=%d)",
				todo.OwnerID, todo.Num, res.Failed, res.Deactivated)
			s.failure()
			continue
		}
		if err := s.store.MarkReminderSent(ctx, todo.OwnerID, todo.Num, now); err != nil {
			// The push went out; a lost watermark means at worst one repeat.
			log.Printf("reminders: mark sent failed owner=%s num=%d: %v", todo.OwnerID, todo.Num, err)
		}
		sent++
		if s.metrics != nil {
			s.metrics.RemindersSent.Inc()
		}
	}
	return sent, nil
}

// window is the one-minute due slot [now+lead, now+lead+1m), truncated to
// minute precision to line up with the stored HH:MM values. When the slot
// starts at 23:59 the end lands on the next date.
func (s *Scanner) window(now time.Time) todos.ReminderWindow {
	start := now.In(s.loc).Add(s.lead).Truncate(time.Minute)
	end := start.Add(time.Minute)
	return todos.ReminderWindow{
		StartDate: start.Format("2006-01-02"),
		StartTime: start.Format("15:04"),
		EndDate:   end.Format("2006-01-02"),
		EndTime:   end.Format("15:04"),
	}
}

func (s *Scanner) failure() {
	if s.metrics != nil {
		s.metrics.ReminderFailures.Inc()
	}
}

func message(todo todos.Todo, lead time.Duration) notify.Notification {
	body := fmt.Sprintf("%d분 뒤에 '%s' 일정이 있어요. 잊지 마세요!", int(lead.Minutes()), todo.Task)
	if todo.DueTime != nil {
		body = fmt.Sprintf("%s에 '%s' 일정이 있어요. 잊지 마세요!", *todo.DueTime, todo.Task)
	}
	return notify.Notification{Title: "일정 알림", Body: body}
}
