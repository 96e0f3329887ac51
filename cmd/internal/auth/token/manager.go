package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	useAccess  = "access"
	useRefresh = "refresh"
)

// Claims is the identity envelope embedded in both token kinds.
// It never contains the credential hash or any secret material.
type Claims struct {
	UserID string
	Email  string

	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Pair is the result of issuing a full token pair.
type Pair struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

type jwtClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Use    string `json:"use"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256-signed access and refresh tokens.
// It is a pure function of (claims, secret, clock) and safe for concurrent use.
type Manager struct {
	cfg Config
}

// NewManager validates the config and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrConfig
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, ErrConfig
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		cfg.Issuer = DefaultConfig().Issuer
	}
	return &Manager{cfg: cfg}, nil
}

// IssuePair mints an access token (now + AccessTTL) and a refresh token
// (now + RefreshTTL) for the given identity.
func (m *Manager) IssuePair(userID, email string, now time.Time) (Pair, error) {
	access, accessExp, err := m.issue(userID, email, now, useAccess, m.cfg.AccessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshExp, err := m.issue(userID, email, now, useRefresh, m.cfg.RefreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: refresh,
		RefreshExp:   refreshExp,
	}, nil
}

// IssueAccess mints only a short-lived access token. The refresh endpoint
// uses this so refreshing access does not by itself rotate the refresh token.
func (m *Manager) IssueAccess(userID, email string, now time.Time) (string, time.Time, error) {
	return m.issue(userID, email, now, useAccess, m.cfg.AccessTTL)
}

// VerifyAccess verifies an access token at the given instant.
func (m *Manager) VerifyAccess(token string, now time.Time) (Claims, error) {
	return m.verify(token, now, useAccess)
}

// VerifyRefresh verifies a refresh token at the given instant.
func (m *Manager) VerifyRefresh(token string, now time.Time) (Claims, error) {
	return m.verify(token, now, useRefresh)
}

func (m *Manager) issue(userID, email string, now time.Time, use string, ttl time.Duration) (string, time.Time, error) {
	if userID == "" || email == "" {
		return "", time.Time{}, ErrInvalidPayload
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	exp := now.Add(ttl)

	claims := jwtClaims{
		UserID: userID,
		Email:  email,
		Use:    use,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (m *Manager) verify(token string, now time.Time, use string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, ErrInvalidToken
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var parsed jwtClaims
	_, err := jwt.ParseWithClaims(token, &parsed,
		func(t *jwt.Token) (any, error) { return m.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		// Signature, structure, issuer, and expiry failures are all the
		// same "invalid token" to callers.
		return Claims{}, ErrInvalidToken
	}

	if parsed.UserID == "" || parsed.Email == "" || parsed.Use != use {
		return Claims{}, ErrInvalidPayload
	}

	c := Claims{
		UserID: parsed.UserID,
		Email:  parsed.Email,
	}
	if parsed.IssuedAt != nil {
		c.IssuedAt = parsed.IssuedAt.Time
	}
	if parsed.ExpiresAt != nil {
		c.ExpiresAt = parsed.ExpiresAt.Time
	}
	return c, nil
}
