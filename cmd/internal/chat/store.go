package chat

import (
	"context"
	"time"
)

// StoredMessage is the canonical persisted chat message. Messages are
// immutable once written; the chat core never updates or deletes them.
type StoredMessage struct {
	ID         string
	GroupID    string
	SenderID   string
	SenderName string
	Text       string
	SentAt     time.Time
}

// InsertMessageInput describes one message append.
type InsertMessageInput struct {
	GroupID    string
	SenderID   string
	SenderName string
	Text       string
	Now        time.Time
}

// MessageStore is the persisted message collection, append-only from the
// chat core's perspective.
//
// Requirements:
//   - Insert assigns the message id and stores the denormalized sender name.
//   - Recent returns up to limit messages, newest-first by timestamp.
type MessageStore interface {
	Insert(ctx context.Context, in InsertMessageInput) (StoredMessage, error)
	Recent(ctx context.Context, groupID string, limit int) ([]StoredMessage, error)
	Close() error
}
