package todos

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore keeps todos in process memory. It backs local development
// and tests; production uses the Postgres store.
type InMemoryStore struct {
	mu     sync.RWMutex
	byUser map[string]map[int]Todo
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byUser: make(map[string]map[int]Todo)}
}

func (s *InMemoryStore) Create(_ context.Context, ownerID, task, dueDate string, dueTime *string) (Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.byUser[ownerID]
	if owned == nil {
		owned = make(map[int]Todo)
		s.byUser[ownerID] = owned
	}

	used := make([]int, 0, len(owned))
	for n := range owned {
		used = append(used, n)
	}
	sort.Ints(used)

	todo := Todo{
		OwnerID:   ownerID,
		Num:       nextCompactNum(used),
		Task:      task,
		DueDate:   dueDate,
		DueTime:   cloneTime(dueTime),
		CreatedAt: time.Now().UTC(),
	}
	owned[todo.Num] = todo
	return todo, nil
}

func (s *InMemoryStore) ListPastIncomplete(_ context.Context, ownerID string, now time.Time) ([]Todo, error) {
	today := now.Format("2006-01-02")
	clock := now.Format("15:04")
	return s.list(ownerID, func(t Todo) bool {
		if t.IsCompleted {
			return false
		}
		if t.DueDate < today {
			return true
		}
		return t.DueDate == today && t.DueTime != nil && *t.DueTime < clock
	}), nil
}

func (s *InMemoryStore) ListTodayIncomplete(_ context.Context, ownerID string, now time.Time) ([]Todo, error) {
	today := now.Format("2006-01-02")
	return s.list(ownerID, func(t Todo) bool {
		return !t.IsCompleted && t.DueDate == today
	}), nil
}

func (s *InMemoryStore) ListFutureIncomplete(_ context.Context, ownerID string, now time.Time) ([]Todo, error) {
	today := now.Format("2006-01-02")
	return s.list(ownerID, func(t Todo) bool {
		return !t.IsCompleted && t.DueDate > today
	}), nil
}

func (s *InMemoryStore) ListCompleted(_ context.Context, ownerID string) ([]Todo, error) {
	return s.list(ownerID, func(t Todo) bool { return t.IsCompleted }), nil
}

func (s *InMemoryStore) ToggleComplete(_ context.Context, ownerID string, num int) (Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todo, ok := s.byUser[ownerID][num]
	if !ok {
		return Todo{}, ErrNotFound
	}
	todo.IsCompleted = !todo.IsCompleted
	s.byUser[ownerID][num] = todo
	return todo, nil
}

func (s *InMemoryStore) Update(_ context.Context, ownerID string, num int, fields UpdateFields) (Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todo, ok := s.byUser[ownerID][num]
	if !ok {
		return Todo{}, ErrNotFound
	}
	if fields.Task != nil {
		todo.Task = *fields.Task
	}
	if fields.DueDate != nil {
		todo.DueDate = *fields.DueDate
	}
	if fields.DueTime != nil {
		todo.DueTime = cloneTime(fields.DueTime)
	}
	s.byUser[ownerID][num] = todo
	return todo, nil
}

func (s *InMemoryStore) Delete(_ context.Context, ownerID string, num int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUser[ownerID][num]; !ok {
		return ErrNotFound
	}
	delete(s.byUser[ownerID], num)
	return nil
}

func (s *InMemoryStore) DueCandidates(_ context.Context, w ReminderWindow) ([]Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Todo
	for _, owned := range s.byUser {
		for _, t := range owned {
			if t.IsCompleted || t.ReminderSentAt != nil {
				continue
			}
			if w.contains(t.DueDate, t.DueTime) {
				out = append(out, t)
			}
		}
	}
	sortTodos(out)
	return out, nil
}

func (s *InMemoryStore) MarkReminderSent(_ context.Context, ownerID string, num int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	todo, ok := s.byUser[ownerID][num]
	if !ok {
		return ErrNotFound
	}
	if todo.ReminderSentAt != nil {
		return nil
	}
	sent := at
	todo.ReminderSentAt = &sent
	s.byUser[ownerID][num] = todo
	return nil
}

func (s *InMemoryStore) Close() error { return nil }

func (s *InMemoryStore) list(ownerID string, keep func(Todo) bool) []Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Todo, 0, 8)
	for _, t := range s.byUser[ownerID] {
		if keep(t) {
			out = append(out, t)
		}
	}
	sortTodos(out)
	return out
}

// sortTodos applies the listing order: entries with a time first, then date
// ascending, then time ascending, then number for stability.
func sortTodos(list []Todo) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		aFlag, bFlag := timeNullFlag(a), timeNullFlag(b)
		if aFlag != bFlag {
			return aFlag < bFlag
		}
		if a.DueDate != b.DueDate {
			return a.DueDate < b.DueDate
		}
		at, bt := timeOrEmpty(a), timeOrEmpty(b)
		if at != bt {
			return at < bt
		}
		return a.Num < b.Num
	})
}

func timeNullFlag(t Todo) int {
	if t.DueTime == nil {
		return 1
	}
	return 0
}

func timeOrEmpty(t Todo) string {
	if t.DueTime == nil {
		return ""
	}
	return *t.DueTime
}

func cloneTime(t *string) *string {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
