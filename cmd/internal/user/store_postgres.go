package user

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sharebase/cmd/internal/pgutil"
)

// PostgresStore is a Store backed by PostgreSQL. The pool is owned by the
// caller.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPostgresStore constructs a Postgres-backed user Store.
func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("user: nil pool")
	}
	schema, err := pgutil.ValidSchema(schema, "sharebase")
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool, schema: schema}, nil
}

func (s *PostgresStore) Insert(ctx context.Context, u User) error {
	users := pgutil.Ident(s.schema, "users")

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+users+` (id, name, email, password_hash, created_at, last_accessed)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.LastAccessed,
	)
	return err
}

func (s *PostgresStore) GetByID(ctx context.Context, userID string) (User, error) {
	return s.getWhere(ctx, "id", userID)
}

func (s *PostgresStore) GetByName(ctx context.Context, name string) (User, error) {
	return s.getWhere(ctx, "name", name)
}

func (s *PostgresStore) getWhere(ctx context.Context, column, value string) (User, error) {
	users := pgutil.Ident(s.schema, "users")

	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at, last_accessed
		   FROM `+users+` WHERE `+column+` = $1`,
		value,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.LastAccessed)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *PostgresStore) Exists(ctx context.Context, userID string) (bool, error) {
	users := pgutil.Ident(s.schema, "users")

	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM `+users+` WHERE id = $1`,
		userID,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStore) UpdateLastAccessed(ctx context.Context, userID string, at time.Time) error {
	users := pgutil.Ident(s.schema, "users")

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+users+` SET last_accessed = $2 WHERE id = $1`,
		userID, at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Search matches name substrings case-insensitively, ranking prefix
// matches ahead of the rest.
func (s *PostgresStore) Search(ctx context.Context, q string, limit int) ([]User, error) {
	if limit <= 0 {
		limit = 10
	}
	users := pgutil.Ident(s.schema, "users")

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, password_hash, created_at, last_accessed
		   FROM `+users+`
		  WHERE name ILIKE '%' || $1 || '%'
		  ORDER BY (name ILIKE $1 || '%') DESC, name ASC
		  LIMIT $2`,
		q, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.LastAccessed); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
