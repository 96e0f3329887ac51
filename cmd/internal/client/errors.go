package client

import (
	"errors"
	"fmt"
)

// ErrorKind tags an APIError with the category downstream logic dispatches
// on. The transport shape is parsed exactly once, at the API boundary.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota

	// KindValidation: malformed or policy-violating input, recoverable by
	// user correction. Carries field detail when the server provides it.
	KindValidation

	// KindAuthentication: bad credentials or an invalid/expired access
	// token. Recoverable by refresh or re-login.
	KindAuthentication

	// KindAuthorizationExpired: the refresh token itself is dead. The
	// only sane reaction is a full logout, never a retry.
	KindAuthorizationExpired

	// KindConflict: uniqueness violation (duplicate email).
	KindConflict

	// KindNotFound: a valid token referencing a gone identity.
	KindNotFound

	// KindNetworkUnreachable: the request never produced an HTTP response.
	KindNetworkUnreachable
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorizationExpired:
		return "authorization_expired"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindNetworkUnreachable:
		return "network_unreachable"
	default:
		return "unknown"
	}
}

// FieldError is one field-attributable validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is the tagged boundary error. Message never contains the raw
// credential.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Fields     []FieldError
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("api: %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: %s: %s", e.Kind, e.Message)
}

// KindOf extracts the error kind, or KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsAuthentication reports whether err is a 401-class failure.
func IsAuthentication(err error) bool {
	return KindOf(err) == KindAuthentication
}

// IsAuthorizationExpired reports whether err means the refresh path is dead.
func IsAuthorizationExpired(err error) bool {
	return KindOf(err) == KindAuthorizationExpired
}
