package password

import (
	"errors"
	"unicode/utf8"
)

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")

	// ErrInvalidHash means the stored value is not a well-formed Argon2id
	// PHC string, or carries parameters Verify refuses to compute.
	ErrInvalidHash = errors.New("invalid password hash")
)

// Validate applies the length policy. Lengths are counted in runes so
// multi-byte passwords are not penalized.
func (c Config) Validate(password string) error {
	n := utf8.RuneCountInString(password)
	if n < c.Policy.MinLength {
		return ErrPasswordTooShort
	}
	if n > c.Policy.MaxLength {
		return ErrPasswordTooLong
	}
	return nil
}
