package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const phcVariant = "argon2id"

// Hash derives an Argon2id hash of password and encodes it as a PHC string.
// The password must already satisfy Validate; Hash does not re-check policy.
func (c Config) Hash(password string) (string, error) {
	p := c.Params

	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.MemoryKiB, p.Parallelism, p.KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		phcVariant, argon2.Version,
		p.MemoryKiB, p.Iterations, p.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key),
	), nil
}

// Verify recomputes the hash with the parameters embedded in encoded and
// compares in constant time. A malformed or over-budget encoded value
// returns ErrInvalidHash; a clean mismatch returns (false, nil).
func (c Config) Verify(encoded, password string) (bool, error) {
	p, salt, key, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}
	if err := c.checkVerifyBudget(p); err != nil {
		return false, err
	}

	got := argon2.IDKey([]byte(password), salt, p.Iterations, p.MemoryKiB, p.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(got, key) == 1, nil
}

// checkVerifyBudget rejects stored parameters far above the configured
// cost. The encoded hash is untrusted input; without a ceiling a crafted
// row could pin a CPU for the length of one login attempt.
func (c Config) checkVerifyBudget(p Argon2idParams) error {
	if p.MemoryKiB > c.Params.MemoryKiB*4 {
		return fmt.Errorf("%w: memory %d KiB over budget", ErrInvalidHash, p.MemoryKiB)
	}
	if p.Iterations > c.Params.Iterations*4 {
		return fmt.Errorf("%w: iterations %d over budget", ErrInvalidHash, p.Iterations)
	}
	if p.Parallelism > 16 {
		return fmt.Errorf("%w: parallelism %d over budget", ErrInvalidHash, p.Parallelism)
	}
	return nil
}

// decodePHC splits a $argon2id$v=19$m=..,t=..,p=..$salt$key string.
func decodePHC(encoded string) (Argon2idParams, []byte, []byte, error) {
	var p Argon2idParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != phcVariant {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, ErrInvalidHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	if p.MemoryKiB == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return p, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) < 16 {
		return p, nil, nil, ErrInvalidHash
	}

	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}
