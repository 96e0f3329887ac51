package password

import "errors"

// Public, stable errors for callers.
var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrMissingUpper     = errors.New("password needs an uppercase letter")
	ErrMissingLower     = errors.New("password needs a lowercase letter")
	ErrMissingDigit     = errors.New("password needs a digit")
	ErrMissingSymbol    = errors.New("password needs a symbol")
	ErrInvalidHash      = errors.New("invalid password hash")
)
