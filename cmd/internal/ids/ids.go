// Package ids provides the ID primitives (ULID, random digits) used across sharebase.
package ids

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewULID returns a new ULID string (26 chars).
// ULIDs are lexicographically sortable, which keeps store scans and logs ordered.
func NewULID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewRandomDigits returns n random decimal digits.
func NewRandomDigits(n int) string {
	if n <= 0 {
		n = 5
	}

	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return ""
	}

	out := make([]byte, n)
	for i, v := range b {
		out[i] = '0' + v%10
	}
	return string(out)
}
