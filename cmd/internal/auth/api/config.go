package authapi

import (
	"os"
	"strconv"
	"strings"
)

// Config controls auth API behavior and cookie security defaults.
type Config struct {
	// DevMode enables verbose error detail (stack traces in error bodies).
	// Never enable in production.
	DevMode bool

	RefreshCookieName string
	CookiePath        string
	CookieDomain      string

	// CookieSecure marks the refresh cookie Secure. Defaults to the
	// inverse of DevMode so local HTTP development keeps working.
	CookieSecure bool

	MaxBodyBytes int64
}

// LoadConfigFromEnv loads auth API config from environment variables with
// safe defaults. AUTH_ENV=development enables dev mode; anything else is
// treated as production.
func LoadConfigFromEnv() Config {
	dev := strings.EqualFold(strings.TrimSpace(os.Getenv("AUTH_ENV")), "development")

	cfg := Config{
		DevMode:           dev,
		RefreshCookieName: envString("AUTH_REFRESH_COOKIE_NAME", "refresh_token"),
		CookiePath:        envString("AUTH_COOKIE_PATH", "/"),
		CookieDomain:      strings.TrimSpace(os.Getenv("AUTH_COOKIE_DOMAIN")),
		CookieSecure:      envBool("AUTH_COOKIE_SECURE", !dev),
		MaxBodyBytes:      envInt64("AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return cfg
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
