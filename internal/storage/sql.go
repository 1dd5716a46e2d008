package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Prxnesh/Task-Manager-App/internal/models"
)

// SQLStorage runs every operation as a single statement on a shared pool.
type SQLStorage struct {
	db *sql.DB
	d  dialect
}

// Open connects to driver ("sqlite", "postgres" or "mysql") and pings it.
func Open(driver, dsn string) (*SQLStorage, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	dsn, err := d.prepareDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("prepare %s dsn: %w", driver, err)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	d.configure(db)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	return &SQLStorage{db: db, d: d}, nil
}

func NewSQLiteStorage(path string) (*SQLStorage, error) {
	return Open("sqlite", path)
}

func (s *SQLStorage) InitSchema(ctx context.Context) error {
	for _, stmt := range s.d.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func (s *SQLStorage) InsertTask(ctx context.Context, task models.NewTask) (int64, error) {
	if err := task.Validate(); err != nil {
		return 0, err
	}

	var owner any
	if task.OwnerID != nil {
		owner = *task.OwnerID
	}

	id, err := s.insert(ctx,
		"INSERT INTO tasks (title, completed, priority, user_id) VALUES (?, ?, ?, ?)",
		task.Title, false, string(task.Priority), owner)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	return id, nil
}

func (s *SQLStorage) ListTasks(ctx context.Context, ownerID *int64) ([]models.Task, error) {
	query := "SELECT id, title, completed, priority, user_id FROM tasks"
	var args []any
	if ownerID != nil {
		query += " WHERE user_id = ?"
		args = append(args, *ownerID)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, s.d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (s *SQLStorage) UpdateTaskCompletion(ctx context.Context, id int64, completed bool, ownerID *int64) (bool, error) {
	query := "UPDATE tasks SET completed = ? WHERE id = ?"
	args := []any{completed, id}
	if ownerID != nil {
		query += " AND user_id = ?"
		args = append(args, *ownerID)
	}

	found, err := s.execAffected(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update task %d: %w", id, err)
	}
	return found, nil
}

func (s *SQLStorage) DeleteTask(ctx context.Context, id int64, ownerID *int64) (bool, error) {
	query := "DELETE FROM tasks WHERE id = ?"
	args := []any{id}
	if ownerID != nil {
		query += " AND user_id = ?"
		args = append(args, *ownerID)
	}

	found, err := s.execAffected(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete task %d: %w", id, err)
	}
	return found, nil
}

func (s *SQLStorage) InsertUser(ctx context.Context, username, passwordHash string) (int64, error) {
	id, err := s.insert(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, passwordHash)
	if err != nil {
		if s.d.isUniqueViolation(err) {
			return 0, fmt.Errorf("insert user %q: %w", username, models.ErrConflict)
		}
		return 0, fmt.Errorf("insert user %q: %w", username, err)
	}
	return id, nil
}

func (s *SQLStorage) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, "SELECT id, username, password_hash FROM users WHERE username = ?", username)
}

func (s *SQLStorage) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.findUser(ctx, "SELECT id, username, password_hash FROM users WHERE id = ?", id)
}

func (s *SQLStorage) CreateSession(ctx context.Context, session models.Session) error {
	_, err := s.db.ExecContext(ctx,
		s.d.rebind("INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)"),
		session.Token, session.UserID, session.ExpiresAt.Unix())
	if err != nil {
		if s.d.isUniqueViolation(err) {
			return fmt.Errorf("create session: %w", models.ErrConflict)
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SQLStorage) FindSession(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	var expiresAt int64

	err := s.db.QueryRowContext(ctx,
		s.d.rebind("SELECT token, user_id, expires_at FROM sessions WHERE token = ?"), token,
	).Scan(&session.Token, &session.UserID, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	session.ExpiresAt = time.Unix(expiresAt, 0)
	return &session, nil
}

func (s *SQLStorage) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, s.d.rebind("DELETE FROM sessions WHERE token = ?"), token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SQLStorage) insert(ctx context.Context, query string, args ...any) (int64, error) {
	if s.d.returning {
		var id int64
		err := s.db.QueryRowContext(ctx, s.d.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}

	result, err := s.db.ExecContext(ctx, s.d.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLStorage) execAffected(ctx context.Context, query string, args ...any) (bool, error) {
	result, err := s.db.ExecContext(ctx, s.d.rebind(query), args...)
	if err != nil {
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStorage) findUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, s.d.rebind(query), arg).
		Scan(&user.ID, &user.Username, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %v: %w", arg, models.ErrNotFound)
		}
		return nil, fmt.Errorf("find user %v: %w", arg, err)
	}
	return &user, nil
}

func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task
		var priority string
		var owner sql.NullInt64

		if err := rows.Scan(&task.ID, &task.Title, &task.Completed, &priority, &owner); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}

		task.Priority = models.Priority(priority)
		if owner.Valid {
			id := owner.Int64
			task.OwnerID = &id
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}
