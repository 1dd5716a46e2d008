package manager

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Prxnesh/Task-Manager-App/internal/models"
	"github.com/Prxnesh/Task-Manager-App/internal/storage"
)

func newTestUserManager(t *testing.T) (*UserManager, *storage.MemoryStorage) {
	t.Helper()

	store := storage.NewMemoryStorage()
	um := NewUserManager(store, bcrypt.MinCost, time.Hour)

	n := 0
	um.newToken = func() string {
		n++
		return fmt.Sprintf("token-%d", n)
	}
	return um, store
}

func TestRegister(t *testing.T) {
	um, store := newTestUserManager(t)
	ctx := context.Background()

	user, err := um.Register(ctx, models.Credentials{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	stored, err := store.FindUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if stored.ID != user.ID {
		t.Errorf("id mismatch: %d vs %d", stored.ID, user.ID)
	}
	if stored.PasswordHash == "secret" {
		t.Fatal("plaintext password stored")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret")); err != nil {
		t.Errorf("stored hash does not match: %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	um, store := newTestUserManager(t)
	ctx := context.Background()

	first, _ := um.Register(ctx, models.Credentials{Username: "alice", Password: "one"})
	if _, err := um.Register(ctx, models.Credentials{Username: "alice", Password: "two"}); !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	stored, _ := store.FindUserByUsername(ctx, "alice")
	if stored.ID != first.ID {
		t.Error("first user was replaced")
	}
	if _, err := um.Login(ctx, models.Credentials{Username: "alice", Password: "one"}); err != nil {
		t.Errorf("first user's password must still work: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	um, _ := newTestUserManager(t)
	if _, err := um.Register(context.Background(), models.Credentials{Username: "alice"}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLoginAndCurrentUser(t *testing.T) {
	um, _ := newTestUserManager(t)
	ctx := context.Background()
	user, _ := um.Register(ctx, models.Credentials{Username: "alice", Password: "secret"})

	session, err := um.Login(ctx, models.Credentials{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.Token != "token-1" || session.UserID != user.ID {
		t.Errorf("unexpected session: %+v", session)
	}

	current, err := um.CurrentUser(ctx, session.Token)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if current.ID != user.ID || current.Username != "alice" {
		t.Errorf("unexpected user: %+v", current)
	}
}

func TestLoginFailures(t *testing.T) {
	um, store := newTestUserManager(t)
	ctx := context.Background()
	um.Register(ctx, models.Credentials{Username: "alice", Password: "secret"})

	tests := []struct {
		name  string
		creds models.Credentials
	}{
		{name: "wrong password", creds: models.Credentials{Username: "alice", Password: "nope"}},
		{name: "unknown user", creds: models.Credentials{Username: "mallory", Password: "secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := um.Login(ctx, tt.creds)
			if !errors.Is(err, models.ErrAuth) {
				t.Fatalf("expected ErrAuth, got %v", err)
			}
			if err.Error() != models.ErrAuth.Error() {
				t.Errorf("error must not reveal the cause: %q", err)
			}
		})
	}

	// no session was created by the failed attempts
	if _, err := store.FindSession(ctx, "token-1"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("failed login left a session behind: %v", err)
	}
}

func TestLogout(t *testing.T) {
	um, _ := newTestUserManager(t)
	ctx := context.Background()
	um.Register(ctx, models.Credentials{Username: "alice", Password: "secret"})
	session, _ := um.Login(ctx, models.Credentials{Username: "alice", Password: "secret"})

	if err := um.Logout(ctx, session.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := um.CurrentUser(ctx, session.Token); !errors.Is(err, models.ErrAuthRequired) {
		t.Errorf("expected ErrAuthRequired after logout, got %v", err)
	}
	if err := um.Logout(ctx, ""); !errors.Is(err, models.ErrAuthRequired) {
		t.Errorf("logout without token: expected ErrAuthRequired, got %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	um, store := newTestUserManager(t)
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	um.now = func() time.Time { return now }

	um.Register(ctx, models.Credentials{Username: "alice", Password: "secret"})
	session, _ := um.Login(ctx, models.Credentials{Username: "alice", Password: "secret"})

	now = now.Add(59 * time.Minute)
	if _, err := um.CurrentUser(ctx, session.Token); err != nil {
		t.Fatalf("session should still be valid: %v", err)
	}

	now = now.Add(time.Minute)
	if _, err := um.CurrentUser(ctx, session.Token); !errors.Is(err, models.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired for expired session, got %v", err)
	}
	if _, err := store.FindSession(ctx, session.Token); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expired session should be deleted, got %v", err)
	}
}

func TestCurrentUserUnknownToken(t *testing.T) {
	um, _ := newTestUserManager(t)
	ctx := context.Background()

	for _, token := range []string{"", "forged"} {
		if _, err := um.CurrentUser(ctx, token); !errors.Is(err, models.ErrAuthRequired) {
			t.Errorf("token %q: expected ErrAuthRequired, got %v", token, err)
		}
	}
}
