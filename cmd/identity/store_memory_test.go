package identity

import (
	"context"
	"sync"
	"testing"
	"time"
)

func fastHashing(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_ARGON2_MEMORY_KIB", "8192")
	t.Setenv("AUTH_ARGON2_ITERATIONS", "1")
	t.Setenv("AUTH_ARGON2_PARALLELISM", "1")
}

func TestCreateUserNormalizesEmail(t *testing.T) {
	fastHashing(t)
	s := NewMemoryStore()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, CreateUserInput{
		Name:     "Ann",
		Email:    "  ANN@X.COM ",
		Password: "Str0ng!pass",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Email != "ann@x.com" {
		t.Fatalf("email=%q want normalized", u.Email)
	}

	ua, err := s.GetUserAuthByEmail(ctx, "Ann@X.com")
	if err != nil {
		t.Fatalf("GetUserAuthByEmail: %v", err)
	}
	if ua.User.ID != u.ID {
		t.Fatalf("lookup by case-variant email returned different user")
	}
	if ua.PasswordHash == "Str0ng!pass" {
		t.Fatalf("credential stored as plaintext")
	}

	ok, err := VerifyPassword("Str0ng!pass", ua.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword=%v,%v want true,nil", ok, err)
	}
}

func TestCreateUserDuplicateEmailCaseVariant(t *testing.T) {
	fastHashing(t)
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, CreateUserInput{Name: "Ann", Email: "ann@x.com", Password: "Str0ng!pass"}); err != nil {
		t.Fatalf("first CreateUser: %v", err)
	}
	_, err := s.CreateUser(ctx, CreateUserInput{Name: "Ann2", Email: "ANN@X.COM", Password: "Str0ng!pass"})
	if !IsConflict(err) {
		t.Fatalf("second CreateUser err=%v want conflict", err)
	}
}

func TestCreateUserConcurrentDuplicate(t *testing.T) {
	fastHashing(t)
	s := NewMemoryStore()
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.CreateUser(ctx, CreateUserInput{
				Name:     "Racer",
				Email:    "race@x.com",
				Password: "Str0ng!pass",
			})
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != n-1 {
		t.Fatalf("successes=%d conflicts=%d want 1/%d", successes, conflicts, n-1)
	}
}

func TestUpdatePasswordDedicatedPath(t *testing.T) {
	fastHashing(t)
	s := NewMemoryStore()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, CreateUserInput{Name: "Ann", Email: "ann@x.com", Password: "Str0ng!pass"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := s.UpdatePassword(ctx, u.ID, "N3w!passw0rd", time.Now().UTC()); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}

	ua, err := s.GetUserAuthByEmail(ctx, "ann@x.com")
	if err != nil {
		t.Fatalf("GetUserAuthByEmail: %v", err)
	}
	if ua.PasswordHash == "N3w!passw0rd" {
		t.Fatalf("credential stored as plaintext")
	}
	if ok, _ := VerifyPassword("N3w!passw0rd", ua.PasswordHash); !ok {
		t.Fatalf("new password does not verify")
	}
	if ok, _ := VerifyPassword("Str0ng!pass", ua.PasswordHash); ok {
		t.Fatalf("old password still verifies")
	}
}

func TestUpdateEmailConflictAndNoop(t *testing.T) {
	fastHashing(t)
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	ann, err := s.CreateUser(ctx, CreateUserInput{Name: "Ann", Email: "ann@x.com", Password: "Str0ng!pass"})
	if err != nil {
		t.Fatalf("CreateUser ann: %v", err)
	}
	if _, err := s.CreateUser(ctx, CreateUserInput{Name: "Bob", Email: "bob@x.com", Password: "Str0ng!pass"}); err != nil {
		t.Fatalf("CreateUser bob: %v", err)
	}

	if _, err := s.UpdateEmail(ctx, ann.ID, "BOB@X.COM", now); !IsConflict(err) {
		t.Fatalf("UpdateEmail to taken address err=%v want conflict", err)
	}

	u, err := s.UpdateEmail(ctx, ann.ID, "Ann.New@X.com", now)
	if err != nil {
		t.Fatalf("UpdateEmail: %v", err)
	}
	if u.Email != "ann.new@x.com" {
		t.Fatalf("email=%q want normalized new address", u.Email)
	}

	// Old address is released for reuse.
	if _, err := s.CreateUser(ctx, CreateUserInput{Name: "Cat", Email: "ann@x.com", Password: "Str0ng!pass"}); err != nil {
		t.Fatalf("CreateUser on released email: %v", err)
	}
}

func TestGetUserByIDAfterDelete(t *testing.T) {
	fastHashing(t)
	s := NewMemoryStore()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, CreateUserInput{Name: "Ann", Email: "ann@x.com", Password: "Str0ng!pass"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := s.GetUserByID(ctx, u.ID); !IsNotFound(err) {
		t.Fatalf("GetUserByID err=%v want not found", err)
	}
}
