package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("AUTH_HTTP_ADDR", "")
	t.Setenv("AUTH_DATABASE_URL", "")

	cfg := LoadConfig()
	if cfg.HTTPAddr != "0.0.0.0:8080" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.ReadHeaderTimeout != 5*time.Second {
		t.Fatalf("ReadHeaderTimeout=%v", cfg.ReadHeaderTimeout)
	}
	if cfg.DBMaxConns != 10 {
		t.Fatalf("DBMaxConns=%d", cfg.DBMaxConns)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("AUTH_HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("AUTH_LOG_LEVEL", "debug")
	t.Setenv("AUTH_READINESS_REQUIRE_DB", "true")
	t.Setenv("AUTH_ALLOWED_ORIGIN", "https://app.example.com")

	cfg := LoadConfig()
	if cfg.HTTPAddr != "127.0.0.1:9999" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel=%q", cfg.LogLevel)
	}
	if !cfg.ReadinessRequireDB {
		t.Fatal("ReadinessRequireDB not set")
	}
	if cfg.AllowedOrigin != "https://app.example.com" {
		t.Fatalf("AllowedOrigin=%q", cfg.AllowedOrigin)
	}
}

func TestValidateSecurityConfig(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("AUTH_TOKEN_SECRET", "")
		if err := ValidateSecurityConfig(); err == nil {
			t.Fatal("expected error for missing secret")
		}
	})

	t.Run("short secret", func(t *testing.T) {
		t.Setenv("AUTH_TOKEN_SECRET", "short")
		if err := ValidateSecurityConfig(); err == nil {
			t.Fatal("expected error for short secret")
		}
	})

	t.Run("ok", func(t *testing.T) {
		t.Setenv("AUTH_TOKEN_SECRET", "0123456789abcdef0123456789abcdef")
		if err := ValidateSecurityConfig(); err != nil {
			t.Fatalf("ValidateSecurityConfig: %v", err)
		}
	})
}

func TestHealthEndpoints(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	mux := http.NewServeMux()
	registerHTTP(mux, log, Config{}, nil, nil, nil)

	t.Run("healthz", func(t *testing.T) {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("status=%d", rr.Code)
		}
	})

	t.Run("readyz without db", func(t *testing.T) {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("status=%d", rr.Code)
		}
	})

	t.Run("readyz requires db", func(t *testing.T) {
		strict := http.NewServeMux()
		registerHTTP(strict, log, Config{ReadinessRequireDB: true}, nil, nil, nil)
		rr := httptest.NewRecorder()
		strict.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("status=%d want 503", rr.Code)
		}
	})
}

func TestNewAppInMemory(t *testing.T) {
	t.Setenv("AUTH_TOKEN_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("AUTH_DATABASE_URL", "")
	t.Setenv("AUTH_ARGON2_MEMORY_KIB", "8192")
	t.Setenv("AUTH_ARGON2_ITERATIONS", "1")
	t.Setenv("AUTH_ARGON2_PARALLELISM", "1")

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(LoadConfig(), log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.auth == nil {
		t.Fatal("auth handler not wired")
	}
	if a.dbPool != nil {
		t.Fatal("no pool expected in memory mode")
	}
}
