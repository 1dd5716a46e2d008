package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/crypto/bcrypt"

	"github.com/Prxnesh/Task-Manager-App/internal/logger"
	"github.com/Prxnesh/Task-Manager-App/internal/models"
)

var authAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "taskapi_auth_attempts_total",
		Help: "Total number of register, login and logout attempts",
	},
	[]string{"op", "status"},
)

// UserStorage is the part of the storage layer authentication needs.
type UserStorage interface {
	InsertUser(ctx context.Context, username, passwordHash string) (int64, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateSession(ctx context.Context, session models.Session) error
	FindSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// UserManager registers users, checks credentials and owns sessions.
type UserManager struct {
	storage UserStorage
	cost    int
	ttl     time.Duration

	now      func() time.Time
	newToken func() string

	dummyOnce sync.Once
	dummyHash []byte
}

func NewUserManager(storage UserStorage, cost int, ttl time.Duration) *UserManager {
	return &UserManager{
		storage:  storage,
		cost:     cost,
		ttl:      ttl,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

func (um *UserManager) Register(ctx context.Context, creds models.Credentials) (*models.User, error) {
	if err := creds.Validate(); err != nil {
		authAttempts.WithLabelValues("register", "invalid").Inc()
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), um.cost)
	if err != nil {
		authAttempts.WithLabelValues("register", "error").Inc()
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := um.storage.InsertUser(ctx, creds.Username, string(hash))
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			authAttempts.WithLabelValues("register", "conflict").Inc()
		} else {
			authAttempts.WithLabelValues("register", "error").Inc()
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	authAttempts.WithLabelValues("register", "success").Inc()
	logger.Info(ctx, "user registered", "userID", id, "username", creds.Username)
	return &models.User{ID: id, Username: creds.Username, PasswordHash: string(hash)}, nil
}

// Login verifies the password and opens a session. Unknown users and wrong
// passwords both yield ErrAuth.
func (um *UserManager) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	user, err := um.storage.FindUserByUsername(ctx, creds.Username)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			authAttempts.WithLabelValues("login", "error").Inc()
			return nil, fmt.Errorf("login: %w", err)
		}
		// burn a comparison so unknown usernames are not faster
		_ = bcrypt.CompareHashAndPassword(um.dummy(), []byte(creds.Password))
		authAttempts.WithLabelValues("login", "denied").Inc()
		return nil, models.ErrAuth
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		authAttempts.WithLabelValues("login", "denied").Inc()
		return nil, models.ErrAuth
	}

	session := models.Session{
		Token:     um.newToken(),
		UserID:    user.ID,
		ExpiresAt: um.now().Add(um.ttl),
	}
	if err := um.storage.CreateSession(ctx, session); err != nil {
		authAttempts.WithLabelValues("login", "error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	authAttempts.WithLabelValues("login", "success").Inc()
	logger.Info(ctx, "user logged in", "userID", user.ID)
	return &session, nil
}

func (um *UserManager) Logout(ctx context.Context, token string) error {
	if token == "" {
		authAttempts.WithLabelValues("logout", "denied").Inc()
		return models.ErrAuthRequired
	}
	if err := um.storage.DeleteSession(ctx, token); err != nil {
		authAttempts.WithLabelValues("logout", "error").Inc()
		return fmt.Errorf("logout: %w", err)
	}

	authAttempts.WithLabelValues("logout", "success").Inc()
	return nil
}

// CurrentUser resolves the session token to its user. Missing, unknown and
// expired tokens all yield ErrAuthRequired; expired sessions are removed.
func (um *UserManager) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, models.ErrAuthRequired
	}

	session, err := um.storage.FindSession(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrAuthRequired
		}
		return nil, fmt.Errorf("current user: %w", err)
	}

	if session.Expired(um.now()) {
		if err := um.storage.DeleteSession(ctx, token); err != nil {
			logger.Error(ctx, err, "drop expired session")
		}
		return nil, models.ErrAuthRequired
	}

	user, err := um.storage.FindUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrAuthRequired
		}
		return nil, fmt.Errorf("current user: %w", err)
	}
	return user, nil
}

// FindUser looks a user up by name without checking a password.
func (um *UserManager) FindUser(ctx context.Context, username string) (*models.User, error) {
	return um.storage.FindUserByUsername(ctx, username)
}

func (um *UserManager) dummy() []byte {
	um.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), um.cost)
		if err != nil {
			hash = []byte{}
		}
		um.dummyHash = hash
	})
	return um.dummyHash
}
