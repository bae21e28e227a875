package audit

import (
	"context"
	"sync"
)

// defaultCap bounds the in-memory trail; older events fall off the front.
const defaultCap = 1000

type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
	cap    int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{cap: defaultCap}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if len(s.events) > s.cap {
		s.events = s.events[len(s.events)-s.cap:]
	}
	return nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.events)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Event, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}
