package activity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sharebase/cmd/internal/ids"
	"sharebase/cmd/internal/pgutil"
)

const defaultRecentLimit = 50

// PostgresStore persists activities in PostgreSQL. The pool is owned by the caller.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPostgresStore constructs a Postgres-backed activity Store.
func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("activity: nil pool")
	}
	schema, err := pgutil.ValidSchema(schema, "sharebase")
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool, schema: schema}, nil
}

// Record appends one activity row.
func (s *PostgresStore) Record(ctx context.Context, a Activity) error {
	if a.GroupID == "" || a.Type == "" {
		return errors.New("activity: invalid record")
	}

	now := a.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id := a.ID
	if id == "" {
		var err error
		if id, err = ids.NewULID(now); err != nil {
			return err
		}
	}

	var fileID sql.NullString
	if a.FileID != "" {
		fileID = sql.NullString{String: a.FileID, Valid: true}
	}

	activities := pgutil.Ident(s.schema, "activities")

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+activities+` (id, user_id, group_id, activity_type, file_id, ts)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, a.UserID, a.GroupID, string(a.Type), fileID, now,
	)
	return err
}

// Recent returns the newest activities for a group.
func (s *PostgresStore) Recent(ctx context.Context, groupID string, limit int) ([]Activity, error) {
	if groupID == "" {
		return nil, errors.New("activity: missing group id")
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	activities := pgutil.Ident(s.schema, "activities")

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, group_id, activity_type, file_id, ts
		   FROM `+activities+`
		  WHERE group_id = $1
		  ORDER BY ts DESC, id DESC
		  LIMIT $2`,
		groupID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var (
			a      Activity
			typ    string
			fileID sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.GroupID, &typ, &fileID, &a.Timestamp); err != nil {
			return nil, err
		}
		a.Type = Type(typ)
		if fileID.Valid {
			a.FileID = fileID.String
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
