package user

import (
	"context"
	"sync"

	"consentdesk/pkg/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	users  map[int64]User
	order  []int64 // first-match-wins username scans need stable order
	nextID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[int64]User), nextID: 1}
}

func (s *InMemoryStore) Create(_ context.Context, username, password string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := User{ID: s.nextID, Username: username, Password: password}
	s.nextID++
	s.users[u.ID] = u
	s.order = append(s.order, u.ID)
	return u, nil
}

func (s *InMemoryStore) Get(_ context.Context, id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return User{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) GetByUsername(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if s.users[id].Username == username {
			return s.users[id], nil
		}
	}
	return User{}, sentinel.ErrNotFound
}
