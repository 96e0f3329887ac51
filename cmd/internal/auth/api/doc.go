// Package authapi exposes the authentication HTTP surface: register, login,
// refresh, current-identity, credential updates and logout.
//
// Handlers are stateless request-scoped computations. The refresh token
// travels only in an HttpOnly SameSite=Strict cookie; the access token is a
// bearer credential the client attaches itself. All non-2xx responses share
// one body shape, produced by a single translation point in errors.go.
package authapi
