// Package blob abstracts the object store that holds shared file content.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("blob: not found")

// Store is the object storage surface used by the file service.
type Store interface {
	// Put stores the reader's content under key. size is the expected
	// content length (-1 if unknown).
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Get retrieves the object. The caller closes the ReadCloser.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every object whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// PresignGet returns a time-limited download URL for the object.
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}
