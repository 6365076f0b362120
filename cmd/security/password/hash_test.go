package password

import (
	"errors"
	"strings"
	"testing"
)

// testConfig keeps argon2 cost low so the suite stays fast.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	return cfg
}

func TestHashVerifyRoundTrip(t *testing.T) {
	t.Parallel()
	cfg := testConfig()

	encoded, err := cfg.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Fatalf("unexpected encoding: %s", encoded)
	}

	ok, err := cfg.Verify(encoded, "correct horse battery")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("correct password rejected")
	}

	ok, err = cfg.Verify(encoded, "wrong password")
	if err != nil {
		t.Fatalf("Verify mismatch: %v", err)
	}
	if ok {
		t.Fatalf("wrong password accepted")
	}
}

func TestHashSaltsAreUnique(t *testing.T) {
	t.Parallel()
	cfg := testConfig()

	a, err := cfg.Hash("same input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := cfg.Hash("same input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password are identical")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	t.Parallel()
	cfg := testConfig()

	cases := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"not phc", "plaintext"},
		{"wrong variant", "$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2Fs$a2V5a2V5a2V5a2V5a2V5a2V5"},
		{"wrong version", "$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2Fs$a2V5a2V5a2V5a2V5a2V5a2V5"},
		{"zero cost", "$argon2id$v=19$m=0,t=0,p=0$c2FsdHNhbHRzYWx0c2Fs$a2V5a2V5a2V5a2V5a2V5a2V5"},
		{"bad salt b64", "$argon2id$v=19$m=8192,t=1,p=1$!!!$a2V5a2V5a2V5a2V5a2V5a2V5"},
		{"short key", "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2Fs$a2V5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := cfg.Verify(tc.encoded, "anything")
			if !errors.Is(err, ErrInvalidHash) {
				t.Fatalf("err = %v, want ErrInvalidHash", err)
			}
		})
	}
}

func TestVerifyRejectsOverBudgetParams(t *testing.T) {
	t.Parallel()
	cfg := testConfig()

	// Well-formed, but memory far above the configured cost. Stored hashes
	// are untrusted input and must not dictate arbitrary work.
	over := "$argon2id$v=19$m=4194304,t=1,p=1$c2FsdHNhbHRzYWx0c2Fs$a2V5a2V5a2V5a2V5a2V5a2V5"
	if _, err := cfg.Verify(over, "anything"); !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("err = %v, want ErrInvalidHash", err)
	}
}

func TestValidateLengthPolicy(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	cases := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"too short", "seven77", ErrPasswordTooShort},
		{"at minimum", "eight888", nil},
		{"multibyte runes count once", "pässwörd", nil},
		{"too long", strings.Repeat("x", 129), ErrPasswordTooLong},
		{"at maximum", strings.Repeat("x", 128), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := cfg.Validate(tc.password); !errors.Is(err, tc.wantErr) {
				t.Fatalf("Validate(%q) = %v, want %v", tc.password, err, tc.wantErr)
			}
		})
	}
}
