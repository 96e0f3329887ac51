package token

import "errors"

var (
	// ErrInvalidToken is returned when a token is structurally malformed,
	// carries a bad signature, or is expired.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidPayload is returned when a token verifies cryptographically
	// but is missing required claims or carries the wrong use marker.
	ErrInvalidPayload = errors.New("invalid token payload")

	// ErrConfig is returned for invalid token configuration. A missing
	// signing secret is fatal: the server cannot operate without it.
	ErrConfig = errors.New("invalid token config")
)
