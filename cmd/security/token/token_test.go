package token

import (
	"errors"
	"strings"
	"testing"
)

func TestSecretFromEnv(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		t.Setenv(SecretEnvKey, "")
		if _, err := SecretFromEnv(MinSecretBytes); !errors.Is(err, ErrSecretMissing) {
			t.Fatalf("err=%v want ErrSecretMissing", err)
		}
	})

	t.Run("too short", func(t *testing.T) {
		t.Setenv(SecretEnvKey, "shortsecret")
		if _, err := SecretFromEnv(MinSecretBytes); !errors.Is(err, ErrSecretTooShort) {
			t.Fatalf("err=%v want ErrSecretTooShort", err)
		}
	})

	t.Run("ok", func(t *testing.T) {
		t.Setenv(SecretEnvKey, strings.Repeat("s", MinSecretBytes))
		b, err := SecretFromEnv(MinSecretBytes)
		if err != nil {
			t.Fatalf("SecretFromEnv: %v", err)
		}
		if len(b) != MinSecretBytes {
			t.Fatalf("len=%d want %d", len(b), MinSecretBytes)
		}
	})

	t.Run("trims whitespace", func(t *testing.T) {
		t.Setenv(SecretEnvKey, "  "+strings.Repeat("s", MinSecretBytes)+"\n")
		b, err := SecretFromEnv(MinSecretBytes)
		if err != nil {
			t.Fatalf("SecretFromEnv: %v", err)
		}
		if len(b) != MinSecretBytes {
			t.Fatalf("len=%d want %d", len(b), MinSecretBytes)
		}
	})
}
