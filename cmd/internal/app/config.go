package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogPretty bool

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, /readyz returns 503 unless the database is configured and
	// reachable.
	ReadinessRequireDB bool

	// AllowedOrigin is the single origin permitted to make credentialed
	// cross-origin requests (the browser frontend). Empty disables CORS
	// headers entirely.
	AllowedOrigin string
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("AUTH_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("AUTH_LOG_LEVEL", "info"),
		LogPretty: EnvBool("AUTH_LOG_PRETTY", false),

		ReadHeaderTimeout: EnvDuration("AUTH_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("AUTH_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("AUTH_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("AUTH_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("AUTH_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("AUTH_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("AUTH_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("AUTH_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("AUTH_READINESS_REQUIRE_DB", false),

		AllowedOrigin: EnvString("AUTH_ALLOWED_ORIGIN", ""),
	}
}
