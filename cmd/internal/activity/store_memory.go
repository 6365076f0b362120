package activity

import (
	"context"
	"sync"
	"time"

	"sharebase/cmd/internal/ids"
)

const memoryMaxPerGroup = 1000

// InMemoryStore keeps activity records in process memory, bounded per group.
// Intended for development and tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	groups map[string][]Activity
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{groups: make(map[string][]Activity)}
}

func (s *InMemoryStore) Record(ctx context.Context, a Activity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	if a.ID == "" {
		id, err := ids.NewULID(a.Timestamp)
		if err != nil {
			return err
		}
		a.ID = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs := append(s.groups[a.GroupID], a)
	if len(recs) > memoryMaxPerGroup {
		recs = recs[len(recs)-memoryMaxPerGroup:]
	}
	s.groups[a.GroupID] = recs
	return nil
}

// Recent returns up to limit records, newest-first.
func (s *InMemoryStore) Recent(ctx context.Context, groupID string, limit int) ([]Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.groups[groupID]
	n := len(recs)
	if n > limit {
		n = limit
	}
	out := make([]Activity, 0, n)
	for i := len(recs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, recs[i])
	}
	return out, nil
}
