package app

import "errors"

// ValidateSecurityConfig enforces the startup security policy.
//
// Fail-fast is intentional: silently serving the domain APIs without their
// keys in production is unacceptable.
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireAPIKeys {
		return nil
	}

	if cfg.GroupAPIKey == "" {
		return errors.New("security policy: SHAREBASE_REQUIRE_API_KEYS=true but SHAREBASE_GROUP_API_KEY is missing")
	}
	if cfg.UserAPIKey == "" {
		return errors.New("security policy: SHAREBASE_REQUIRE_API_KEYS=true but SHAREBASE_USERSERVICES_API_KEY is missing")
	}
	if cfg.FileAPIKey == "" {
		return errors.New("security policy: SHAREBASE_REQUIRE_API_KEYS=true but SHAREBASE_FILE_API_KEY is missing")
	}

	const minKeyLen = 16
	for _, key := range []string{cfg.GroupAPIKey, cfg.UserAPIKey, cfg.FileAPIKey} {
		// Keys are raw header bytes, so measure bytes, not runes.
		if len(key) < minKeyLen {
			return errors.New("security policy: API keys must be at least 16 bytes")
		}
	}
	return nil
}
