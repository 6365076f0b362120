package group

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

// NewPostgresStore constructs a Postgres-backed group Store.
func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("group: nil pool")
	}
	schema, err := pgutil.ValidSchema(schema, "sharebase")
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool, schema: schema}, nil
}

// Create inserts the group and its owner membership in one transaction.
func (s *PostgresStore) Create(ctx context.Context, g Group, owner Member) error {
	groups := pgutil.Ident(s.schema, "groups")
	members := pgutil.Ident(s.schema, "group_members")

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO `+groups+` (id, name, description, created_by, created_at, starred)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			g.ID, g.Name, g.Description, g.CreatedBy, g.CreatedAt, g.Starred,
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO `+members+` (user_id, group_id, role, joined_at)
			 VALUES ($1, $2, $3, $4)`,
			owner.UserID, owner.GroupID, owner.Role, owner.JoinedAt,
		)
		return err
	})
}

func (s *PostgresStore) Get(ctx context.Context, groupID string) (Group, error) {
	groups := pgutil.Ident(s.schema, "groups")

	var g Group
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, created_by, created_at, starred
		   FROM `+groups+` WHERE id = $1`,
		groupID,
	).Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.CreatedAt, &g.Starred)
	if errors.Is(err, pgx.ErrNoRows) {
		return Group{}, ErrNotFound
	}
	if err != nil {
		return Group{}, err
	}
	return g, nil
}

// Delete removes the group row and its memberships in one transaction.
func (s *PostgresStore) Delete(ctx context.Context, groupID string) error {
	groups := pgutil.Ident(s.schema, "groups")
	members := pgutil.Ident(s.schema, "group_members")

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM `+members+` WHERE group_id = $1`, groupID,
		); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`DELETE FROM `+groups+` WHERE id = $1`, groupID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *PostgresStore) Rename(ctx context.Context, groupID, name string) error {
	return s.setColumn(ctx, groupID, "name", name)
}

func (s *PostgresStore) SetDescription(ctx context.Context, groupID, description string) error {
	return s.setColumn(ctx, groupID, "description", description)
}

func (s *PostgresStore) SetStarred(ctx context.Context, groupID string, starred bool) error {
	return s.setColumn(ctx, groupID, "starred", starred)
}

// setColumn updates a single column on the group row. The column name is
// always one of a fixed set of literals, never caller input.
func (s *PostgresStore) setColumn(ctx context.Context, groupID, column string, value any) error {
	groups := pgutil.Ident(s.schema, "groups")

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+groups+` SET `+column+` = $2 WHERE id = $1`,
		groupID, value,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns the groups the user belongs to, newest-first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Group, error) {
	groups := pgutil.Ident(s.schema, "groups")
	members := pgutil.Ident(s.schema, "group_members")

	rows, err := s.pool.Query(ctx,
		`SELECT g.id, g.name, g.description, g.created_by, g.created_at, g.starred,
		        (SELECT COUNT(*) FROM `+members+` c WHERE c.group_id = g.id) AS member_count
		   FROM `+groups+` g
		   JOIN `+members+` m ON m.group_id = g.id
		  WHERE m.user_id = $1
		  ORDER BY g.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.CreatedAt, &g.Starred, &g.MemberCount); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddMember(ctx context.Context, m Member) error {
	members := pgutil.Ident(s.schema, "group_members")

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+members+` (user_id, group_id, role, joined_at)
		 VALUES ($1, $2, $3, $4)`,
		m.UserID, m.GroupID, m.Role, m.JoinedAt,
	)
	return err
}

func (s *PostgresStore) Members(ctx context.Context, groupID string) ([]Member, error) {
	members := pgutil.Ident(s.schema, "group_members")

	rows, err := s.pool.Query(ctx,
		`SELECT user_id, group_id, role, joined_at
		   FROM `+members+`
		  WHERE group_id = $1
		  ORDER BY joined_at ASC`,
		groupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.GroupID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	members := pgutil.Ident(s.schema, "group_members")

	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM `+members+` WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
