// Package identity owns the durable user record: creation with a unique
// normalized email, lookup by id or email, and the credential/email update
// paths.
//
// Uniqueness of the normalized email is the store's job. Handlers must never
// rely on a check-then-insert sequence; the atomic constraint (SQL UNIQUE or
// the memory store's lock) is the single source of truth for conflicts.
//
// Password hashes only ever enter the store through CreateUser and
// UpdatePassword, both of which run the plaintext through the credential
// hasher. There is intentionally no generic field-update path that could
// write the credential column.
package identity
