package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

const accessTokenKey = "access_token"

// TokenEvent is broadcast to subscribers whenever the durable access-token
// slot changes. An empty Token means the slot was cleared (logout signal).
type TokenEvent struct {
	Token string
}

// CredentialStore is the durable, cross-controller slot for the access
// token. It is the single source of truth for "logged in at all": every
// controller sharing one store observes set/clear through Subscribe, which
// is how an external logout propagates without any direct call between
// controller instances.
type CredentialStore struct {
	db *sql.DB

	mu     sync.Mutex
	subs   map[int]chan TokenEvent
	nextID int
	closed bool
}

// OpenCredentialStore opens (and initializes) a sqlite-backed store at path.
func OpenCredentialStore(path string) (*CredentialStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	// Serialized access; the store is shared by several controllers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS credentials (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init credential store: %w", err)
	}

	return &CredentialStore{
		db:   db,
		subs: make(map[int]chan TokenEvent),
	}, nil
}

// Close releases the store. Subscriber channels are closed.
func (s *CredentialStore) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for id, ch := range s.subs {
			close(ch)
			delete(s.subs, id)
		}
	}
	s.mu.Unlock()
	return s.db.Close()
}

// Token returns the stored access token, or "" when absent.
func (s *CredentialStore) Token(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM credentials WHERE key = ?`, accessTokenKey,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	return v, nil
}

// SetToken persists the access token and broadcasts the change.
func (s *CredentialStore) SetToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		accessTokenKey, token,
	)
	if err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	s.broadcast(TokenEvent{Token: token})
	return nil
}

// ClearToken removes the token slot and broadcasts the logout signal.
func (s *CredentialStore) ClearToken(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE key = ?`, accessTokenKey,
	)
	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	s.broadcast(TokenEvent{})
	return nil
}

// Subscribe registers a listener for token changes. The returned cancel
// function must be called to release the subscription.
func (s *CredentialStore) Subscribe() (<-chan TokenEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	ch := make(chan TokenEvent, 8)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (s *CredentialStore) broadcast(ev TokenEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		// Non-blocking: a slow subscriber drops events rather than
		// stalling every other controller.
		select {
		case ch <- ev:
		default:
		}
	}
}
