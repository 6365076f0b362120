package file

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sharebase/cmd/internal/pgutil"
)

// PostgresStore is a Store backed by PostgreSQL. The pool is owned by
// the caller.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPostgresStore constructs a Postgres-backed file Store.
func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("file: nil pool")
	}
	schema, err := pgutil.ValidSchema(schema, "sharebase")
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool, schema: schema}, nil
}

func (s *PostgresStore) Insert(ctx context.Context, f File) error {
	files := pgutil.Ident(s.schema, "files")

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+files+` (id, group_id, name, uploaded_by, uploaded_at, size_bytes, content_type, blob_key, pinned)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		f.ID, f.GroupID, f.Name, f.UploadedBy, f.UploadedAt, f.Size, f.ContentType, f.BlobKey, f.Pinned,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, fileID string) (File, error) {
	files := pgutil.Ident(s.schema, "files")

	var f File
	err := s.pool.QueryRow(ctx,
		`SELECT id, group_id, name, uploaded_by, uploaded_at, size_bytes, content_type, blob_key, pinned
		   FROM `+files+` WHERE id = $1`,
		fileID,
	).Scan(&f.ID, &f.GroupID, &f.Name, &f.UploadedBy, &f.UploadedAt, &f.Size, &f.ContentType, &f.BlobKey, &f.Pinned)
	if errors.Is(err, pgx.ErrNoRows) {
		return File{}, ErrNotFound
	}
	if err != nil {
		return File{}, err
	}
	return f, nil
}

func (s *PostgresStore) Delete(ctx context.Context, fileID string) error {
	files := pgutil.Ident(s.schema, "files")

	tag, err := s.pool.Exec(ctx, `DELETE FROM `+files+` WHERE id = $1`, fileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetPinned(ctx context.Context, fileID string, pinned bool) error {
	files := pgutil.Ident(s.schema, "files")

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+files+` SET pinned = $2 WHERE id = $1`,
		fileID, pinned,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByGroup returns the group's files, pinned first, then newest-first.
func (s *PostgresStore) ListByGroup(ctx context.Context, groupID string) ([]File, error) {
	files := pgutil.Ident(s.schema, "files")

	rows, err := s.pool.Query(ctx,
		`SELECT id, group_id, name, uploaded_by, uploaded_at, size_bytes, content_type, blob_key, pinned
		   FROM `+files+`
		  WHERE group_id = $1
		  ORDER BY pinned DESC, uploaded_at DESC, id DESC`,
		groupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.GroupID, &f.Name, &f.UploadedBy, &f.UploadedAt, &f.Size, &f.ContentType, &f.BlobKey, &f.Pinned); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UsageBytes(ctx context.Context, groupID string) (int64, error) {
	files := pgutil.Ident(s.schema, "files")

	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(size_bytes), 0) FROM `+files+` WHERE group_id = $1`,
		groupID,
	).Scan(&total)
	return total, err
}
