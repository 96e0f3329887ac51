package token

import "errors"

var (
	// ErrSecretMissing is returned when the signing secret env var is absent or blank.
	ErrSecretMissing = errors.New("token signing secret missing")

	// ErrSecretTooShort is returned when the signing secret does not meet the minimum byte length.
	ErrSecretTooShort = errors.New("token signing secret too short")
)
