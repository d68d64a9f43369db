package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jihoonhan/dolbomi/internal/notify"
	"github.com/jihoonhan/dolbomi/internal/todos"
)

type fakeNotifier struct {
	result notify.Result
	err    error
	sent   []notify.Notification
	users  []string
}

func (f *fakeNotifier) SendToUser(_ context.Context, userID string, n notify.Notification) (notify.Result, error) {
	f.users = append(f.users, userID)
	f.sent = append(f.sent, n)
	return f.result, f.err
}

func strPtr(s string) *string { return &s }

func seed(t *testing.T, s todos.Store, owner, task, date, clock string) todos.Todo {
	t.Helper()
	todo, err := s.Create(context.Background(), owner, task, date, strPtr(clock))
	if err != nil {
		t.Fatalf("Create(%q) error = %v", task, err)
	}
	return todo
}

func TestScanSendsAndMarks(t *testing.T) {
	store := todos.NewInMemoryStore()
	seed(t, store, "u1", "병원 가기", "2025-09-10", "14:30")
	seed(t, store, "u1", "아직 멀었음", "2025-09-10", "15:00")

	fake := &fakeNotifier{result: notify.Result{Success: 1}}
	sc := NewScanner(store, fake, nil, time.UTC, 30*time.Minute)

	now := time.Date(2025, 9, 10, 14, 0, 45, 0, time.UTC)
	sent, err := sc.Scan(context.Background(), now)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if sent != 1 {
		t.Fatalf("Scan() = %d, want 1", sent)
	}
	if len(fake.users) != 1 || fake.users[0] != "u1" {
		t.Fatalf("notified users = %v", fake.users)
	}

	// Same minute again: the watermark makes the scan a no-op.
	sent, err = sc.Scan(context.Background(), now)
	if err != nil {
		t.Fatalf("Scan() second call error = %v", err)
	}
	if sent != 0 {
		t.Fatalf("Scan() second call = %d, want 0", sent)
	}
}

func TestScanRetriesFullyFailedDelivery(t *testing.T) {
	store := todos.NewInMemoryStore()
	seed(t, store, "u1", "약 먹기", "2025-09-10", "14:30")

	fake := &fakeNotifier{result: notify.Result{Failed: 2}}
	sc := NewScanner(store, fake, nil, time.UTC, 30*time.Minute)

	now := time.Date(2025, 9, 10, 14, 0, 0, 0, time.UTC)
	sent, err := sc.Scan(context.Background(), now)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if sent != 0 {
		t.Fatalf("Scan() = %d, want 0 when no device accepted", sent)
	}

	// Delivery recovers: the todo is still a candidate.
	fake.result = notify.Result{Success: 1}
	sent, err = sc.Scan(context.Background(), now)
	if err != nil {
		t.Fatalf("Scan() retry error = %v", err)
	}
	if sent != 1 {
		t.Fatalf("Scan() retry = %d, want 1", sent)
	}
}

func TestScanSendErrorDoesNotAbortRun(t *testing.T) {
	store := todos.NewInMemoryStore()
	seed(t, store, "u1", "하나", "2025-09-10", "14:30")
	seed(t, store, "u2", "둘", "2025-09-10", "14:30")

	fake := &fakeNotifier{err: errors.New("relay down")}
	sc := NewScanner(store, fake, nil, time.UTC, 30*time.Minute)

	now := time.Date(2025, 9, 10, 14, 0, 0, 0, time.UTC)
	sent, err := sc.Scan(context.Background(), now)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if sent != 0 {
		t.Fatalf("Scan() = %d, want 0", sent)
	}
	if len(fake.users) != 2 {
		t.Fatalf("attempted sends = %d, want both owners tried", len(fake.users))
	}
}

func TestWindowSpansMidnight(t *testing.T) {
	store := todos.NewInMemoryStore()
	seed(t, store, "u1", "자정 직전", "2025-09-10", "23:59")
	seed(t, store, "u1", "다음날", "2025-09-11", "00:01")

	fake := &fakeNotifier{result: notify.Result{Success: 1}}
	sc := NewScanner(store, fake, nil, time.UTC, 30*time.Minute)

	// 23:29 + 30m lead = slot [23:59, 00:00 next day).
	now := time.Date(2025, 9, 10, 23, 29, 10, 0, time.UTC)
	w := sc.window(now)
	if w.StartDate != "2025-09-10" || w.StartTime != "23:59" {
		t.Fatalf("window start = %s %s", w.StartDate, w.StartTime)
	}
	if w.EndDate != "2025-09-11" || w.EndTime != "00:00" {
		t.Fatalf("window end = %s %s", w.EndDate, w.EndTime)
	}

	sent, err := sc.Scan(context.Background(), now)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if sent != 1 || fake.sent[0].Body == "" {
		t.Fatalf("sent = %d, notifications = %+v", sent, fake.sent)
	}
}
