package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// dialect holds everything that differs between the supported engines.
type dialect struct {
	driver string
	schema []string
	// numbered turns "?" placeholders into $1, $2, ...
	numbered bool
	// returning means the engine has no LastInsertId and needs RETURNING id.
	returning         bool
	prepareDSN        func(dsn string) (string, error)
	configure         func(db *sql.DB)
	isUniqueViolation func(err error) bool
}

var dialects = map[string]dialect{
	"sqlite":   sqliteDialect,
	"postgres": postgresDialect,
	"mysql":    mysqlDialect,
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL CHECK (title <> ''),
			completed BOOLEAN NOT NULL DEFAULT 0,
			priority TEXT NOT NULL DEFAULT 'Medium' CHECK (priority IN ('High', 'Medium', 'Low')),
			user_id INTEGER REFERENCES users (id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks (user_id)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			expires_at INTEGER NOT NULL
		)`,
	},
	prepareDSN: func(dsn string) (string, error) {
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			path := dsn
			if i := strings.IndexByte(path, '?'); i >= 0 {
				path = path[:i]
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return "", fmt.Errorf("create database directory: %w", err)
			}
		}

		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
	},
	// SQLite allows one writer at a time; a single connection makes the
	// pool queue requests instead of failing with SQLITE_BUSY.
	configure: func(db *sql.DB) {
		db.SetMaxOpenConns(1)
	},
	isUniqueViolation: func(err error) bool {
		var se *sqlite.Error
		if !errors.As(err, &se) {
			return false
		}
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	},
}

var postgresDialect = dialect{
	driver: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL CHECK (title <> ''),
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			priority TEXT NOT NULL DEFAULT 'Medium' CHECK (priority IN ('High', 'Medium', 'Low')),
			user_id BIGINT REFERENCES users (id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks (user_id)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			expires_at BIGINT NOT NULL
		)`,
	},
	numbered:  true,
	returning: true,
	prepareDSN: func(dsn string) (string, error) {
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			return pq.ParseURL(dsn)
		}
		return dsn, nil
	},
	configure: func(*sql.DB) {},
	isUniqueViolation: func(err error) bool {
		var pe *pq.Error
		return errors.As(err, &pe) && pe.Code == "23505"
	},
}

var mysqlDialect = dialect{
	driver: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			title TEXT NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			priority VARCHAR(6) NOT NULL DEFAULT 'Medium',
			user_id BIGINT NULL,
			CONSTRAINT chk_tasks_title CHECK (title <> ''),
			CONSTRAINT chk_tasks_priority CHECK (priority IN ('High', 'Medium', 'Low')),
			FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token VARCHAR(64) PRIMARY KEY,
			user_id BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
		)`,
	},
	// MySQL reports changed rows by default; an UPDATE that writes the
	// current value would look like a missing row without clientFoundRows.
	prepareDSN: func(dsn string) (string, error) {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", err
		}
		cfg.ClientFoundRows = true
		return cfg.FormatDSN(), nil
	},
	configure: func(*sql.DB) {},
	isUniqueViolation: func(err error) bool {
		var me *mysql.MySQLError
		return errors.As(err, &me) && me.Number == 1062
	},
}

// rebind rewrites "?" placeholders for engines that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
