package token

import (
	"fmt"
	"os"
	"time"

	sectoken "authstarter/cmd/security/token"
)

// Config defines all runtime configuration for the token subsystem.
//
// It is environment-driven so deployments can tune TTLs without code changes.
// The signing secret is the one required value; everything else has defaults.
type Config struct {
	// Issuer is the value set in the "iss" claim.
	Issuer string

	// AccessTTL is the access token lifetime (default 15m).
	AccessTTL time.Duration

	// RefreshTTL is the refresh token lifetime (default 7 days).
	RefreshTTL time.Duration

	// Secret signs both token kinds (HMAC-SHA256).
	Secret []byte
}

// DefaultConfig returns the token defaults without a secret.
func DefaultConfig() Config {
	return Config{
		Issuer:     "authstarter",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

// LoadConfigFromEnv loads token configuration from environment variables.
//
// Required:
//   - AUTH_TOKEN_SECRET (min 32 bytes)
//
// Optional (durations must be valid Go duration strings):
//   - AUTH_ISSUER
//   - AUTH_ACCESS_TTL
//   - AUTH_REFRESH_TTL
//
// Returns ErrConfig if configuration is invalid or the secret is absent.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("AUTH_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("%w: AUTH_ACCESS_TTL", ErrConfig)
		}
		cfg.AccessTTL = d
	}

	if v := os.Getenv("AUTH_REFRESH_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("%w: AUTH_REFRESH_TTL", ErrConfig)
		}
		cfg.RefreshTTL = d
	}

	secret, err := sectoken.SecretFromEnv(sectoken.MinSecretBytes)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	cfg.Secret = secret

	// The refresh window must outlast the access window.
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return Config{}, fmt.Errorf("%w: refresh ttl must exceed access ttl", ErrConfig)
	}

	return cfg, nil
}
