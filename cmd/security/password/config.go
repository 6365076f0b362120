package password

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Argon2idParams is the hashing cost. MemoryKiB is in KiB, as argon2.IDKey
// expects.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy bounds accepted password lengths, counted in runes.
type Policy struct {
	MinLength int
	MaxLength int
}

// Config is the package's single configuration surface.
type Config struct {
	Params Argon2idParams
	Policy Policy
}

// DefaultConfig is the sharebase baseline: interactive-login Argon2id cost
// and a length-only policy (the registration form enforces nothing else).
func DefaultConfig() Config {
	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024, // 64 MiB
			Iterations:  3,
			Parallelism: defaultParallelism(),
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength: 8,
			MaxLength: 128,
		},
	}
}

// defaultParallelism follows the host CPU count, clamped to [1..4] so cost
// stays predictable inside small containers.
func defaultParallelism() uint8 {
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	if n > 4 {
		n = 4
	}
	return uint8(n)
}

// envBounds pairs an env var with the range it must fall in.
type envBounds struct {
	key      string
	min, max uint64
}

// FromEnv starts from DefaultConfig and applies SHAREBASE_PASSWORD_* /
// SHAREBASE_ARGON2_* overrides. Out-of-range values fail loudly instead of
// being clamped.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	read := func(b envBounds) (uint64, bool, error) {
		v, ok := os.LookupEnv(b.key)
		if !ok {
			return 0, false, nil
		}
		u, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return 0, false, fmt.Errorf("%s: not an unsigned integer", b.key)
		}
		if u < b.min || u > b.max {
			return 0, false, fmt.Errorf("%s: out of range [%d..%d]", b.key, b.min, b.max)
		}
		return u, true, nil
	}

	if u, ok, err := read(envBounds{"SHAREBASE_PASSWORD_MIN_LEN", 1, 1024}); err != nil {
		return Config{}, err
	} else if ok {
		cfg.Policy.MinLength = int(u)
	}
	if u, ok, err := read(envBounds{"SHAREBASE_PASSWORD_MAX_LEN", 1, 4096}); err != nil {
		return Config{}, err
	} else if ok {
		cfg.Policy.MaxLength = int(u)
	}
	if u, ok, err := read(envBounds{"SHAREBASE_ARGON2_MEMORY_KIB", 8 * 1024, 1024 * 1024}); err != nil {
		return Config{}, err
	} else if ok {
		cfg.Params.MemoryKiB = uint32(u)
	}
	if u, ok, err := read(envBounds{"SHAREBASE_ARGON2_ITERATIONS", 1, 20}); err != nil {
		return Config{}, err
	} else if ok {
		cfg.Params.Iterations = uint32(u)
	}
	if u, ok, err := read(envBounds{"SHAREBASE_ARGON2_PARALLELISM", 1, 64}); err != nil {
		return Config{}, err
	} else if ok {
		cfg.Params.Parallelism = uint8(u)
	}
	if u, ok, err := read(envBounds{"SHAREBASE_ARGON2_SALT_LEN", 8, 64}); err != nil {
		return Config{}, err
	} else if ok {
		cfg.Params.SaltLength = uint32(u)
	}
	if u, ok, err := read(envBounds{"SHAREBASE_ARGON2_KEY_LEN", 16, 64}); err != nil {
		return Config{}, err
	} else if ok {
		cfg.Params.KeyLength = uint32(u)
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			cfg.Policy.MinLength, cfg.Policy.MaxLength,
		)
	}

	return cfg, nil
}
