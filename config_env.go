package authkit

import (
	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// ConfigFromEnv builds a Config from DefaultConfig plus AUTHKIT_-prefixed
// environment overrides (AUTHKIT_EMAIL_SENDER_EMAIL, AUTHKIT_ENABLE_EMAIL,
// AUTHKIT_CONFIRM_ACCOUNT_TTL=48h, ...). The result is not yet resolved;
// callers apply programmatic overrides and then call Resolve.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "AUTHKIT_"}); err != nil {
		return Config{}, errors.Wrap(err, ErrConfigInvalid.Category, "failed to parse environment overrides").
			WithTextCode(ErrConfigInvalid.TextCode)
	}

	return cfg, nil
}
