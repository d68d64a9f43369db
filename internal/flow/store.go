// Package flow holds in-progress todo negotiations, one per conversation.
// A flow lives for at most a handful of turns: it is created when the
// engine spots a candidate todo and deleted the moment the negotiation
// resolves, whichever way it resolves.
package flow

import (
	"fmt"
	"sync"
)

type State string

const (
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateAwaitingDate         State = "awaiting_date"
)

// Pending is one in-flight negotiation. Task is always non-empty; Date and
// Time keep whatever phrasing the extraction produced ("내일", "오전 10시").
type Pending struct {
	State State
	Task  string
	Date  string
	Time  string
}

// Store is the keyed table of pending flows. It is an interface so a
// multi-instance deployment can back it with a shared store; the in-memory
// implementation below drops flows on restart, which is acceptable only
// because a dropped flow costs one unanswered confirmation, never data.
type Store interface {
	Get(userID, conversationID string) (Pending, bool)
	Put(userID, conversationID string, p Pending)
	Delete(userID, conversationID string)
	Len() int
}

type InMemoryStore struct {
	mu    sync.RWMutex
	flows map[string]Pending
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{flows: make(map[string]Pending)}
}

func (s *InMemoryStore) Get(userID, conversationID string) (Pending, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.flows[key(userID, conversationID)]
	return p, ok
}

func (s *InMemoryStore) Put(userID, conversationID string, p Pending) {
	if p.Task == "" {
		// A flow without a task has nothing to negotiate about.
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[key(userID, conversationID)] = p
}

func (s *InMemoryStore) Delete(userID, conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, key(userID, conversationID))
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flows)
}

func key(userID, conversationID string) string {
	return fmt.Sprintf("%s/%s", userID, conversationID)
}
