package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sharebase/cmd/internal/ids"
	"sharebase/cmd/internal/pgutil"
)

// PostgresStore is a MessageStore backed by PostgreSQL.
//
// Ownership model:
// - PostgresStore does NOT own the pgx pool. The caller must close the pool.
// - Close() is therefore a no-op.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures PostgresStore behavior.
type PostgresOption func(*PostgresStore) error

// WithSchema sets the DB schema used by this store (default: "sharebase").
// The schema name is validated and safely quoted in queries.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema, err := pgutil.ValidSchema(schema, "")
		if err != nil {
			return err
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a Postgres-backed MessageStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "sharebase",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, errors.New("chat: nil pool")
	}
	return st, nil
}

// Close is a no-op because the pool is owned by the caller.
func (s *PostgresStore) Close() error { return nil }

// Insert appends a message with a server-assigned ULID.
func (s *PostgresStore) Insert(ctx context.Context, in InsertMessageInput) (StoredMessage, error) {
	if s == nil || s.pool == nil {
		return StoredMessage{}, errors.New("chat: nil store")
	}
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

	messages := pgutil.Ident(s.schema, "messages")

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+messages+` (id, group_id, sender_id, sender_name, body, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, in.GroupID, in.SenderID, in.SenderName, in.Text, now,
	)
	if err != nil {
		return StoredMessage{}, err
	}

	return StoredMessage{
		ID:         id,
		GroupID:    in.GroupID,
		SenderID:   in.SenderID,
		SenderName: in.SenderName,
		Text:       in.Text,
		SentAt:     now,
	}, nil
}

// Recent returns up to limit messages for a group, newest-first by timestamp.
// The id is a ULID, so it doubles as a stable tiebreaker for equal timestamps.
func (s *PostgresStore) Recent(ctx context.Context, groupID string, limit int) ([]StoredMessage, error) {
	if s == nil || s.pool == nil {
		return nil, errors.New("chat: nil store")
	}
	if groupID == "" {
		return nil, errors.New("missing group id")
	}
	if limit <= 0 {
		limit = historyLimit
	}

	messages := pgutil.Ident(s.schema, "messages")

	rows, err := s.pool.Query(ctx,
		`SELECT id, group_id, sender_id, sender_name, body, sent_at
		   FROM `+messages+`
		  WHERE group_id = $1
		  ORDER BY sent_at DESC, id DESC
		  LIMIT $2`,
		groupID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredMessage
	for rows.Next() {
		var m StoredMessage
		if err := rows.Scan(&m.ID, &m.GroupID, &m.SenderID, &m.SenderName, &m.Text, &m.SentAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
