package user

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// InMemoryStore keeps accounts in process memory. Intended for development
// and tests.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]User)}
}

func (s *InMemoryStore) Insert(ctx context.Context, u User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; ok {
		return errors.New("user: duplicate id")
	}
	s.users[u.ID] = u
	return nil
}

func (s *InMemoryStore) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *InMemoryStore) GetByName(ctx context.Context, name string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Name == name {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *InMemoryStore) Exists(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[userID]
	return ok, nil
}

func (s *InMemoryStore) UpdateLastAccessed(ctx context.Context, userID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.LastAccessed = at
	s.users[userID] = u
	return nil
}

func (s *InMemoryStore) Search(ctx context.Context, q string, limit int) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	q = strings.ToLower(q)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []User
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.Name), q) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi := strings.HasPrefix(strings.ToLower(out[i].Name), q)
		pj := strings.HasPrefix(strings.ToLower(out[j].Name), q)
		if pi != pj {
			return pi
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
