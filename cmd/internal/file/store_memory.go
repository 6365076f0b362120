package file

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// InMemoryStore keeps file metadata in process memory. Intended for
// development and tests.
type InMemoryStore struct {
	mu    sync.RWMutex
	files map[string]File
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{files: make(map[string]File)}
}

func (s *InMemoryStore) Insert(ctx context.Context, f File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[f.ID]; ok {
		return errors.New("file: duplicate id")
	}
	s.files[f.ID] = f
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, fileID string) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[fileID]
	if !ok {
		return File{}, ErrNotFound
	}
	return f, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, fileID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[fileID]; !ok {
		return ErrNotFound
	}
	delete(s.files, fileID)
	return nil
}

func (s *InMemoryStore) SetPinned(ctx context.Context, fileID string, pinned bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return ErrNotFound
	}
	f.Pinned = pinned
	s.files[fileID] = f
	return nil
}

// ListByGroup returns the group's files, newest-first, pinned files ahead.
func (s *InMemoryStore) ListByGroup(ctx context.Context, groupID string) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []File
	for _, f := range s.files {
		if f.GroupID == groupID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

func (s *InMemoryStore) UsageBytes(ctx context.Context, groupID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, f := range s.files {
		if f.GroupID == groupID {
			total += f.Size
		}
	}
	return total, nil
}
