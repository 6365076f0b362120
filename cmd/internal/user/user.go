// Package user manages sharebase accounts: registration, login and lookup.
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"sharebase/cmd/internal/ids"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user: not found")

// User is one registered account.
type User struct {
	ID           string    `json:"userId"`
	Name         string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed time.Time `json:"lastAccessed"`
}

// Store persists user accounts.
type Store interface {
	Insert(ctx context.Context, u User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByName(ctx context.Context, name string) (User, error)
	Exists(ctx context.Context, userID string) (bool, error)
	UpdateLastAccessed(ctx context.Context, userID string, at time.Time) error
	// Search returns up to limit users whose name contains q,
	// prefix matches ranked first.
	Search(ctx context.Context, q string, limit int) ([]User, error)
}

const idSuffixDigits = 5

// GenerateID derives a user id from the display name plus random digits,
// retrying until the id is unused.
func GenerateID(ctx context.Context, store Store, name string) (string, error) {
	base := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	if base == "" {
		return "", errors.New("user: empty name")
	}

	for range 10 {
		id := base + ids.NewRandomDigits(idSuffixDigits)
		taken, err := store.Exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", errors.New("user: could not allocate a free id")
}
