package password

import (
	"errors"
	"strings"
	"testing"
)

func testConfig() Config {
	cfg := DefaultConfig()
	// Cheap params keep the suite fast; policy stays at production settings.
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1
	return cfg
}

func TestHashAndVerify(t *testing.T) {
	cfg := testConfig()

	enc, err := cfg.Hash("Str0ng!pass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(enc, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash prefix: %q", enc)
	}
	if strings.Contains(enc, "Str0ng!pass") {
		t.Fatalf("plaintext leaked into encoded hash")
	}

	ok, err := cfg.Verify(enc, "Str0ng!pass")
	if err != nil || !ok {
		t.Fatalf("Verify(match)=%v,%v want true,nil", ok, err)
	}

	ok, err = cfg.Verify(enc, "Str0ng!pasS")
	if err != nil {
		t.Fatalf("Verify(mismatch) returned error: %v", err)
	}
	if ok {
		t.Fatalf("Verify accepted wrong password")
	}
}

func TestHashesAreSalted(t *testing.T) {
	cfg := testConfig()

	a, err := cfg.Hash("Str0ng!pass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := cfg.Hash("Str0ng!pass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password are identical; salt missing")
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	cfg := testConfig()

	cases := []string{
		"",
		"plainly-not-a-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
	}
	for _, tc := range cases {
		if _, err := cfg.Verify(tc, "whatever"); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("Verify(%q) err=%v want ErrInvalidHash", tc, err)
		}
	}
}

func TestVerifyRefusesPathologicalParams(t *testing.T) {
	cfg := testConfig()

	// Memory far above the configured maximum must be refused, not computed.
	hostile := "$argon2id$v=19$m=1048576,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	if _, err := cfg.Verify(hostile, "whatever"); !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("hostile hash err=%v want ErrInvalidHash", err)
	}
}
