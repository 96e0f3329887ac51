package identity

import (
	"authstarter/cmd/security/password"
)

// HashPassword returns a PHC-style Argon2id hash string.
//
// The policy (length and character classes) and the Argon2id cost come from
// security/password so identity cannot silently drift from the configured
// hashing surface.
func HashPassword(plain string) (string, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		// Invalid env is an operational error, not a weak fallback.
		return "", err
	}
	return cfg.Hash(plain)
}

// VerifyPassword checks a password against a PHC Argon2id hash.
// A mismatch is (false, nil); only malformed hashes or bad config error.
func VerifyPassword(plain, encodedPHC string) (bool, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		return false, err
	}
	return cfg.Verify(encodedPHC, plain)
}
