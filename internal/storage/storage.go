package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Prxnesh/Task-Manager-App/internal/config"
	"github.com/Prxnesh/Task-Manager-App/internal/models"
)

// Storage is the persistence contract shared by the SQL and in-memory
// implementations. A nil ownerID means "any owner".
type Storage interface {
	InitSchema(ctx context.Context) error

	// Tasks
	InsertTask(ctx context.Context, task models.NewTask) (int64, error)
	ListTasks(ctx context.Context, ownerID *int64) ([]models.Task, error)
	UpdateTaskCompletion(ctx context.Context, id int64, completed bool, ownerID *int64) (bool, error)
	DeleteTask(ctx context.Context, id int64, ownerID *int64) (bool, error)

	// Users
	InsertUser(ctx context.Context, username, passwordHash string) (int64, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)

	// Sessions
	CreateSession(ctx context.Context, session models.Session) error
	FindSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error

	Close() error
}

// New opens the store selected by cfg.Driver. The schema is not created.
func New(cfg config.Storage) (Storage, error) {
	if cfg.Driver == "memory" {
		return NewMemoryStorage(), nil
	}
	return Open(cfg.Driver, cfg.DSN)
}

// MemoryStorage keeps everything in maps guarded by one mutex. It follows
// the same rules as the SQL store: unique usernames, ids never reused.
type MemoryStorage struct {
	mu         sync.Mutex
	tasks      map[int64]models.Task
	users      map[int64]models.User
	sessions   map[string]models.Session
	nextTaskID int64
	nextUserID int64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tasks:      make(map[int64]models.Task),
		users:      make(map[int64]models.User),
		sessions:   make(map[string]models.Session),
		nextTaskID: 1,
		nextUserID: 1,
	}
}

func (m *MemoryStorage) InitSchema(context.Context) error {
	return nil
}

func (m *MemoryStorage) InsertTask(_ context.Context, task models.NewTask) (int64, error) {
	if err := task.Validate(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if task.OwnerID != nil {
		if _, ok := m.users[*task.OwnerID]; !ok {
			return 0, fmt.Errorf("insert task: owner %d does not exist", *task.OwnerID)
		}
	}

	id := m.nextTaskID
	m.nextTaskID++
	m.tasks[id] = models.Task{
		ID:       id,
		Title:    task.Title,
		Priority: task.Priority,
		OwnerID:  copyID(task.OwnerID),
	}
	return id, nil
}

func (m *MemoryStorage) ListTasks(_ context.Context, ownerID *int64) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks := make([]models.Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		if !ownedBy(task, ownerID) {
			continue
		}
		task.OwnerID = copyID(task.OwnerID)
		tasks = append(tasks, task)
	}

	slices.SortFunc(tasks, func(a, b models.Task) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return tasks, nil
}

func (m *MemoryStorage) UpdateTaskCompletion(_ context.Context, id int64, completed bool, ownerID *int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok || !ownedBy(task, ownerID) {
		return false, nil
	}
	task.Completed = completed
	m.tasks[id] = task
	return true, nil
}

func (m *MemoryStorage) DeleteTask(_ context.Context, id int64, ownerID *int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok || !ownedBy(task, ownerID) {
		return false, nil
	}
	delete(m.tasks, id)
	return true, nil
}

func (m *MemoryStorage) InsertUser(_ context.Context, username, passwordHash string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			return 0, fmt.Errorf("insert user %q: %w", username, models.ErrConflict)
		}
	}

	id := m.nextUserID
	m.nextUserID++
	m.users[id] = models.User{ID: id, Username: username, PasswordHash: passwordHash}
	return id, nil
}

func (m *MemoryStorage) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, models.ErrNotFound)
}

func (m *MemoryStorage) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	return &u, nil
}

func (m *MemoryStorage) CreateSession(_ context.Context, session models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[session.UserID]; !ok {
		return fmt.Errorf("create session: user %d does not exist", session.UserID)
	}
	if _, ok := m.sessions[session.Token]; ok {
		return fmt.Errorf("create session: %w", models.ErrConflict)
	}
	m.sessions[session.Token] = session
	return nil
}

func (m *MemoryStorage) FindSession(_ context.Context, token string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, fmt.Errorf("session: %w", models.ErrNotFound)
	}
	return &s, nil
}

func (m *MemoryStorage) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, token)
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func ownedBy(task models.Task, ownerID *int64) bool {
	if ownerID == nil {
		return true
	}
	return task.OwnerID != nil && *task.OwnerID == *ownerID
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
