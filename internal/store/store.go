package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Postgres through pgx's database/sql adapter.
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Config selects the database backend.
type Config struct {
	// Driver is "sqlite" or "postgres".
	Driver string

	// DSN is a file path or URI for sqlite, a connection string for postgres.
	// Empty with sqlite means DefaultDBPath.
	DSN string
}

// DefaultConfig returns a SQLite configuration at the default path.
func DefaultConfig() Config {
	return Config{Driver: "sqlite"}
}

// Store wraps an ent SQL driver and provides access to repositories.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver
}

// Open connects to the configured database and runs auto-migration.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var (
		db   *sql.DB
		name string
		err  error
	)

	switch cfg.Driver {
	case "sqlite", "":
		dsn := cfg.DSN
		if dsn == "" {
			if dsn, err = DefaultDBPath(); err != nil {
				return nil, err
			}
		}
		db, err = sql.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		// One writer; pragmas ride on the DSN so every connection gets them.
		db.SetMaxOpenConns(1)
		name = dialect.SQLite
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a DSN")
		}
		db, err = sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		name = dialect.Postgres
	default:
		return nil, fmt.Errorf("unknown database driver: %q", cfg.Driver)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	s := &Store{db: db, drv: entsql.OpenDB(name, db)}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return s, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the ent dialect name in use.
func (s *Store) Dialect() string {
	return s.drv.Dialect()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

// Documents returns the document repository.
func (s *Store) Documents() DocumentRepo { return &documentRepo{s: s} }

// Quizzes returns the quiz set repository.
func (s *Store) Quizzes() QuizRepo { return &quizRepo{s: s} }

// Attempts returns the attempt repository.
func (s *Store) Attempts() AttemptRepo { return &attemptRepo{s: s} }

// Retries returns the retry set repository.
func (s *Store) Retries() RetryRepo { return &retryRepo{s: s} }

// EventRepo returns the LLM event repository.
func (s *Store) EventRepo() EventRepo { return &eventRepo{s: s} }

// sqliteDSN turns a path or file: URI into a modernc DSN with the pragmas
// applied on every new connection.
func sqliteDSN(dsn string) string {
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	pragmas := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_pragma=journal_mode(WAL)",
		"_pragma=synchronous(NORMAL)",
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(pragmas, "&")
}

// DefaultDBPath resolves the database file path in priority order:
// 1. LECSUM_DB environment variable
// 2. $XDG_DATA_HOME/lecsum/lecsum.db
// 3. ~/.local/share/lecsum/lecsum.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("LECSUM_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "lecsum", "lecsum.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
