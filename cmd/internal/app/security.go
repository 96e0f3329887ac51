package app

import (
	"errors"
	"fmt"

	sectoken "authstarter/cmd/security/token"
)

// ValidateSecurityConfig enforces the startup security policy.
//
// The signing secret is the one value the server cannot operate without:
// running with a missing or weak secret would silently issue forgeable
// tokens, so startup fails fast instead.
func ValidateSecurityConfig() error {
	_, err := sectoken.SecretFromEnv(sectoken.MinSecretBytes)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sectoken.ErrSecretMissing):
		return fmt.Errorf("security policy: %s is required", sectoken.SecretEnvKey)
	case errors.Is(err, sectoken.ErrSecretTooShort):
		return fmt.Errorf("security policy: %s is too short (min %d bytes)", sectoken.SecretEnvKey, sectoken.MinSecretBytes)
	default:
		return err
	}
}
