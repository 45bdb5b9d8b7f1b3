// Package session provides isolated SQLite stores scoped to a single
// benchmark scenario. Each session owns a uniquely named database file with a
// fixed single-table schema and a configurable durability mode; closing the
// session discards the backing files.
package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/r4victor/walbench/internal/config"
	"github.com/r4victor/walbench/internal/errors"
)

// schemaSQL is the fixed benchmark schema: auto-increment key, NOT NULL payload.
const schemaSQL = `
	CREATE TABLE entries (
		id INTEGER PRIMARY KEY,
		payload BLOB NOT NULL
	)`

// Session is an owned handle to one isolated database instance. It is safe
// for concurrent writers; whether those writers succeed or observe busy
// rejections is the behavior under measurement.
type Session struct {
	db   *sql.DB
	path string

	mu     sync.Mutex
	closed bool
}

// Options controls how a session's database is opened.
type Options struct {
	// Durability selects the _synchronous level.
	Durability config.Durability

	// BusyTimeout is how long the engine retries internally before
	// reporting SQLITE_BUSY. Zero disables the internal retry loop so
	// contention surfaces immediately.
	BusyTimeout time.Duration
}

// Open creates a fresh, uniquely named SQLite store under dir with the given
// durability mode and applies the benchmark schema. The returned session is
// immediately usable by concurrent writers.
func Open(dir string, opts Options) (*Session, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewSessionError(errors.CodeSessionOpenFailed, "failed to create session directory", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("scenario-%s.db", uuid.NewString()))
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=%s",
		path, opts.BusyTimeout.Milliseconds(), opts.Durability.SynchronousPragma())

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.NewSessionError(errors.CodeSessionOpenFailed, "failed to open database", err)
	}

	// sql.Open is lazy; the schema statement both creates the file and
	// verifies the store is writable.
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		os.Remove(path)
		return nil, errors.NewSessionError(errors.CodeSchemaInitFailed, "failed to initialize schema", err)
	}

	return &Session{db: db, path: path}, nil
}

// DB returns the underlying database handle.
// Returns an error if the session has been closed; using a closed session
// is a harness bug, not a retryable condition.
func (s *Session) DB() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New(errors.ErrCategorySession, errors.CodeSessionClosed, "session is closed")
	}
	return s.db, nil
}

// Path returns the backing database file path.
func (s *Session) Path() string {
	return s.path
}

// RowCount returns the number of rows committed to the store.
func (s *Session) RowCount() (int64, error) {
	db, err := s.DB()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, errors.NewSessionError(errors.CodeSessionOpenFailed, "failed to count rows", err)
	}
	return n, nil
}

// Close closes the database handle and removes the backing files, including
// the WAL and shared-memory sidecars. The caller must have drained all
// outstanding writers first. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.db.Close()
	for _, p := range []string{s.path, s.path + "-wal", s.path + "-shm"} {
		os.Remove(p)
	}
	if err != nil {
		return errors.NewSessionError(errors.CodeSessionClosed, "failed to close database", err)
	}
	return nil
}
