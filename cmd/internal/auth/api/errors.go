package authapi

import (
	"net/http"
	"runtime/debug"

	"authstarter/cmd/identity"
)

// fieldError attributes a validation failure to one request field.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorBody is the shape of every non-2xx response.
type errorBody struct {
	StatusCode int          `json:"statusCode"`
	Message    string       `json:"message"`
	Errors     []fieldError `json:"errors,omitempty"`
	Stack      string       `json:"stack,omitempty"`
}

const (
	msgInvalidCredentials = "Invalid email or password"
	msgInternalError      = "internal server error"
)

// writeError is the single translation point from error kinds to HTTP bodies.
// Stack traces appear only in dev mode and only for server-side failures.
func (h *Handler) writeError(w http.ResponseWriter, status int, msg string, fields []fieldError) {
	body := errorBody{
		StatusCode: status,
		Message:    msg,
		Errors:     fields,
	}
	if h.cfg.DevMode && status >= http.StatusInternalServerError {
		body.Stack = string(debug.Stack())
	}
	writeJSON(w, status, body)
}

// writeStoreError maps identity store error kinds onto the HTTP taxonomy.
// Unknown errors are logged and surfaced as an opaque 500.
func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case identity.IsConflict(err):
		h.writeError(w, http.StatusConflict, "email already in use", nil)
	case identity.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, "user not found", nil)
	case identity.IsInvalidInput(err):
		h.writeError(w, http.StatusBadRequest, "invalid input", nil)
	default:
		h.log.Error(op+".fail", "err", err)
		h.writeError(w, http.StatusInternalServerError, msgInternalError, nil)
	}
}
