// Package token mints and verifies the signed, time-bounded access and
// refresh tokens.
//
// Tokens are self-contained: validity is fully determined by the HMAC
// signature and the embedded expiry. Nothing is stored server-side, so there
// is no revocation before natural expiry. Both token kinds carry the same
// identity claims (user id + normalized email) plus a use marker so a
// short-lived access token can never stand in for a refresh token.
package token
