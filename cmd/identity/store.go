package identity

import (
	"context"
	"time"
)

// User is the canonical security principal.
// Email is always stored in normalized (lower-cased, trimmed) form.
type User struct {
	ID    string
	Name  string
	Email string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserAuth couples a user with its credential hash for login verification.
// The hash never leaves the auth handlers; it is not serialized to clients.
type UserAuth struct {
	User         User
	PasswordHash string
}

// CreateUserInput describes a registration request.
// Password is plaintext here and is hashed inside the store; it must not be
// retained or logged by any caller after the call returns.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Now      time.Time
}

// Store is the identity persistence boundary.
//
// Conflict contract: CreateUser and UpdateEmail fail with a ConflictError
// (field "email") when the normalized email is already taken, enforced by an
// atomic constraint, not by a prior existence check.
type Store interface {
	// CreateUser hashes the password and inserts a new user.
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)

	// GetUserByID returns the current user record, or a NotFoundError.
	GetUserByID(ctx context.Context, id string) (User, error)

	// GetUserAuthByEmail looks up a user plus credential hash by
	// normalized email, or a NotFoundError.
	GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error)

	// GetUserAuthByID looks up a user plus credential hash by id.
	// Credential-changing operations use this to re-verify the current
	// password without trusting any token claim.
	GetUserAuthByID(ctx context.Context, id string) (UserAuth, error)

	// UpdatePassword hashes newPassword and replaces the credential hash.
	// This is the only write path for the credential field.
	UpdatePassword(ctx context.Context, id, newPassword string, now time.Time) error

	// UpdateEmail replaces the user's email (normalized before writing)
	// and returns the updated record.
	UpdateEmail(ctx context.Context, id, newEmail string, now time.Time) (User, error)
}
