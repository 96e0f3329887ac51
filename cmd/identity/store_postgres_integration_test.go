package identity

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Integration tests run only when AUTH_TEST_DATABASE_URL points at a disposable
// database with the migrations applied.

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("AUTH_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("AUTH_TEST_DATABASE_URL not set; skipping postgres integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgresCreateUserAndConflict(t *testing.T) {
	fastHashing(t)
	pool := testPool(t)

	st, err := NewPostgresStore(pool)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}

	ctx := context.Background()
	now := time.Now().UTC()
	email := "it-" + now.Format("150405.000000000") + "@x.com"

	u, err := st.CreateUser(ctx, CreateUserInput{Name: "IT", Email: email, Password: "Str0ng!pass", Now: now})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if _, err := st.CreateUser(ctx, CreateUserInput{Name: "IT2", Email: email, Password: "Str0ng!pass", Now: now}); !IsConflict(err) {
		t.Fatalf("duplicate CreateUser err=%v want conflict", err)
	}

	got, err := st.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Email != email {
		t.Fatalf("email=%q want %q", got.Email, email)
	}
}
