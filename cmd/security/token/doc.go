// Package token holds the signing-secret policy for the token subsystem.
//
// The access/refresh token signing secret is loaded from the environment and
// validated for minimum length. Startup fails fast when the secret is missing
// so the server never runs with unverifiable tokens.
package token
