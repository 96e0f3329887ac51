package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements identity persistence over PostgreSQL.
//
// Design notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are safely quoted to avoid SQL injection via identifiers.
// - Conflicts are detected from the UNIQUE constraint, never from a pre-check.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the identity store (default "auth").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with secure defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "auth",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

var _ Store = (*PostgresStore)(nil)

// CreateUser hashes the password and inserts the user row.
// A duplicate normalized email surfaces as ConflictError via the UNIQUE index.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
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

	pwHash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, invalid(op, err.Error())
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	users := s.table("users")
	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+users+` (id, name, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)`,
		id, name, emailNorm, pwHash, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ConflictError{Op: op, Field: "email"}
		}
		return User{}, err
	}

	return User{
		ID:        id,
		Name:      name,
		Email:     emailNorm,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetUserByID returns the current user row.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if strings.TrimSpace(id) == "" {
		return User{}, invalid(op, "id is required")
	}

	users := s.table("users")
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, created_at, updated_at FROM `+users+` WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, err
	}
	return u, nil
}

// GetUserAuthByEmail looks up a user plus credential hash by normalized email.
func (s *PostgresStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	const op = "identity.GetUserAuthByEmail"

	emailNorm := NormalizeEmail(email)
	if emailNorm == "" {
		return UserAuth{}, invalid(op, "email is required")
	}

	users := s.table("users")
	var ua UserAuth
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at, updated_at
		 FROM `+users+` WHERE email = $1`,
		emailNorm,
	).Scan(&ua.User.ID, &ua.User.Name, &ua.User.Email, &ua.PasswordHash, &ua.User.CreatedAt, &ua.User.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
		}
		return UserAuth{}, err
	}
	return ua, nil
}

// GetUserAuthByID looks up a user plus credential hash by id.
func (s *PostgresStore) GetUserAuthByID(ctx context.Context, id string) (UserAuth, error) {
	const op = "identity.GetUserAuthByID"

	if strings.TrimSpace(id) == "" {
		return UserAuth{}, invalid(op, "id is required")
	}

	users := s.table("users")
	var ua UserAuth
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at, updated_at
		 FROM `+users+` WHERE id = $1`,
		id,
	).Scan(&ua.User.ID, &ua.User.Name, &ua.User.Email, &ua.PasswordHash, &ua.User.CreatedAt, &ua.User.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
		}
		return UserAuth{}, err
	}
	return ua, nil
}

// UpdatePassword hashes newPassword and replaces the stored credential hash.
func (s *PostgresStore) UpdatePassword(ctx context.Context, id, newPassword string, now time.Time) error {
	const op = "identity.UpdatePassword"

	if strings.TrimSpace(id) == "" {
		return invalid(op, "id is required")
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

	users := s.table("users")
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+users+` SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, pwHash, now,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// UpdateEmail writes the normalized new email and returns the updated row.
// A duplicate email surfaces as ConflictError via the UNIQUE index.
func (s *PostgresStore) UpdateEmail(ctx context.Context, id, newEmail string, now time.Time) (User, error) {
	const op = "identity.UpdateEmail"

	if strings.TrimSpace(id) == "" {
		return User{}, invalid(op, "id is required")
	}
	emailNorm := NormalizeEmail(newEmail)
	if emailNorm == "" {
		return User{}, invalid(op, "email is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	users := s.table("users")
	var u User
	err := s.pool.QueryRow(ctx,
		`UPDATE `+users+` SET email = $2, updated_at = $3 WHERE id = $1
		 RETURNING id, name, email, created_at, updated_at`,
		id, emailNorm, now,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		if isUniqueViolation(err) {
			return User{}, ConflictError{Op: op, Field: "email"}
		}
		return User{}, err
	}
	return u, nil
}

func (s *PostgresStore) table(name string) string {
	return fmt.Sprintf("%q.%q", s.schema, name)
}

// isUniqueViolation reports whether err is a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
