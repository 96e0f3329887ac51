package identity

import "errors"

// Sentinel error kinds. Callers branch via the Is* helpers in errors.go.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)
