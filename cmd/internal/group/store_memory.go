package group

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// InMemoryStore keeps groups in process memory. Intended for development
// and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	groups  map[string]Group
	members map[string][]Member // groupID -> members, insertion order
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		groups:  make(map[string]Group),
		members: make(map[string][]Member),
	}
}

func (s *InMemoryStore) Create(ctx context.Context, g Group, owner Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[g.ID]; ok {
		return errors.New("group: duplicate id")
	}
	s.groups[g.ID] = g
	s.members[g.ID] = append(s.members[g.ID], owner)
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, groupID string) (Group, error) {
	if err := ctx.Err(); err != nil {
		return Group{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return Group{}, ErrNotFound
	}
	return g, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, groupID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[groupID]; !ok {
		return ErrNotFound
	}
	delete(s.groups, groupID)
	delete(s.members, groupID)
	return nil
}

func (s *InMemoryStore) Rename(ctx context.Context, groupID, name string) error {
	return s.update(ctx, groupID, func(g *Group) { g.Name = name })
}

func (s *InMemoryStore) SetDescription(ctx context.Context, groupID, description string) error {
	return s.update(ctx, groupID, func(g *Group) { g.Description = description })
}

func (s *InMemoryStore) SetStarred(ctx context.Context, groupID string, starred bool) error {
	return s.update(ctx, groupID, func(g *Group) { g.Starred = starred })
}

func (s *InMemoryStore) update(ctx context.Context, groupID string, fn func(*Group)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return ErrNotFound
	}
	fn(&g)
	s.groups[groupID] = g
	return nil
}

func (s *InMemoryStore) ListByUser(ctx context.Context, userID string) ([]Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Group
	for gid, ms := range s.members {
		for _, m := range ms {
			if m.UserID == userID {
				if g, ok := s.groups[gid]; ok {
					g.MemberCount = len(ms)
					out = append(out, g)
				}
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) AddMember(ctx context.Context, m Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[m.GroupID]; !ok {
		return ErrNotFound
	}
	for _, existing := range s.members[m.GroupID] {
		if existing.UserID == m.UserID {
			return errors.New("group: already a member")
		}
	}
	s.members[m.GroupID] = append(s.members[m.GroupID], m)
	return nil
}

func (s *InMemoryStore) Members(ctx context.Context, groupID string) ([]Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.groups[groupID]; !ok {
		return nil, ErrNotFound
	}
	out := make([]Member, len(s.members[groupID]))
	copy(out, s.members[groupID])
	return out, nil
}

func (s *InMemoryStore) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.members[groupID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}
