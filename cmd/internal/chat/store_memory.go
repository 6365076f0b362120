package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"sharebase/cmd/internal/ids"
)

const memMaxMessagesPerGroup = 10_000

// InMemoryStore is a dev-only MessageStore fallback when no DB is configured.
type InMemoryStore struct {
	mu     sync.Mutex
	groups map[string][]StoredMessage
}

// NewInMemoryStore constructs an in-memory MessageStore implementation.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{groups: make(map[string][]StoredMessage)}
}

// Close closes the store (noop for in-memory).
func (s *InMemoryStore) Close() error { return nil }

// Insert appends a message and assigns it a ULID.
func (s *InMemoryStore) Insert(ctx context.Context, in InsertMessageInput) (StoredMessage, error) {
	if in.GroupID == "" || strings.TrimSpace(in.Text) == "" {
		return StoredMessage{}, errors.New("invalid input")
	}
	if err := ctx.Err(); err != nil {
		return StoredMessage{}, err
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return StoredMessage{}, err
	}

	msg := StoredMessage{
		ID:         id,
		GroupID:    in.GroupID,
		SenderID:   in.SenderID,
		SenderName: in.SenderName,
		Text:       in.Text,
		SentAt:     now,
	}

	s.mu.Lock()
	msgs := append(s.groups[in.GroupID], msg)
	// Bound memory to avoid unbounded growth in dev.
	if len(msgs) > memMaxMessagesPerGroup {
		msgs = msgs[len(msgs)-memMaxMessagesPerGroup:]
	}
	s.groups[in.GroupID] = msgs
	s.mu.Unlock()

	return msg, nil
}

// Recent returns up to limit messages, newest-first.
func (s *InMemoryStore) Recent(ctx context.Context, groupID string, limit int) ([]StoredMessage, error) {
	if groupID == "" {
		return nil, errors.New("missing group id")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = historyLimit
	}

	s.mu.Lock()
	msgs := s.groups[groupID]
	start := len(msgs) - limit
	if start < 0 {
		start = 0
	}
	window := msgs[start:]
	out := make([]StoredMessage, 0, len(window))
	// Stored oldest-first; the contract is newest-first.
	for i := len(window) - 1; i >= 0; i-- {
		out = append(out, window[i])
	}
	s.mu.Unlock()

	return out, nil
}
