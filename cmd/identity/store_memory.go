package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used when no database is configured and
// throughout the test suites.
//
// The mutex makes the email uniqueness check-and-insert atomic, mirroring the
// UNIQUE constraint the Postgres store relies on: two concurrent CreateUser
// calls with the same email always yield exactly one success and one conflict.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]*memoryUser
	byEmail map[string]string // normalized email -> id
}

type memoryUser struct {
	user         User
	passwordHash string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*memoryUser),
		byEmail: make(map[string]string),
	}
}

var _ Store = (*MemoryStore)(nil)

// CreateUser hashes the password and inserts the user under the lock.
func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	name := strings.TrimSpace(in.Name)
	emailNorm := NormalizeEmail(in.Email)
	if name == "" {
		return User{}, invalid(op, "name is required")
	}
	if emailNorm == "" {
		return User{}, invalid(op, "email is required")
	}
	if strings.TrimSpace(in.Password) == "" {
		return User{}, invalid(op, "password is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	// Hash outside the lock; hashing is deliberately slow.
	pwHash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, invalid(op, err.Error())
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[emailNorm]; taken {
		return User{}, ConflictError{Op: op, Field: "email"}
	}

	u := User{
		ID:        id,
		Name:      name,
		Email:     emailNorm,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byID[id] = &memoryUser{user: u, passwordHash: pwHash}
	s.byEmail[emailNorm] = id

	return u, nil
}

// GetUserByID returns the current user record.
func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.byID[id]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return mu.user, nil
}

// GetUserAuthByEmail looks up a user plus credential hash by normalized email.
func (s *MemoryStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	const op = "identity.GetUserAuthByEmail"

	if err := ctx.Err(); err != nil {
		return UserAuth{}, err
	}

	emailNorm := NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[emailNorm]
	if !ok {
		return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
	}
	mu := s.byID[id]
	return UserAuth{User: mu.user, PasswordHash: mu.passwordHash}, nil
}

// GetUserAuthByID looks up a user plus credential hash by id.
func (s *MemoryStore) GetUserAuthByID(ctx context.Context, id string) (UserAuth, error) {
	const op = "identity.GetUserAuthByID"

	if err := ctx.Err(); err != nil {
		return UserAuth{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.byID[id]
	if !ok {
		return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
	}
	return UserAuth{User: mu.user, PasswordHash: mu.passwordHash}, nil
}

// UpdatePassword hashes newPassword and replaces the credential hash.
func (s *MemoryStore) UpdatePassword(ctx context.Context, id, newPassword string, now time.Time) error {
	const op = "identity.UpdatePassword"

	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(newPassword) == "" {
		return invalid(op, "password is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	pwHash, err := HashPassword(newPassword)
	if err != nil {
		return invalid(op, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.byID[id]
	if !ok {
		return NotFoundError{Op: op, Resource: "user"}
	}
	mu.passwordHash = pwHash
	mu.user.UpdatedAt = now
	return nil
}

// UpdateEmail replaces the email under the lock, enforcing uniqueness.
func (s *MemoryStore) UpdateEmail(ctx context.Context, id, newEmail string, now time.Time) (User, error) {
	const op = "identity.UpdateEmail"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	emailNorm := NormalizeEmail(newEmail)
	if emailNorm == "" {
		return User{}, invalid(op, "email is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.byID[id]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}

	if takenBy, taken := s.byEmail[emailNorm]; taken && takenBy != id {
		return User{}, ConflictError{Op: op, Field: "email"}
	}

	delete(s.byEmail, mu.user.Email)
	s.byEmail[emailNorm] = id
	mu.user.Email = emailNorm
	mu.user.UpdatedAt = now

	return mu.user, nil
}

// DeleteUser removes a user record. It exists for the "valid token, deleted
// identity" scenario; the HTTP surface never exposes deletion.
func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	const op = "identity.DeleteUser"

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.byID[id]
	if !ok {
		return NotFoundError{Op: op, Resource: "user"}
	}
	delete(s.byEmail, mu.user.Email)
	delete(s.byID, id)
	return nil
}
