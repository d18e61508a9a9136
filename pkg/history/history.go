// Package history persists evaluated expressions in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	_ "modernc.org/sqlite"
)

var ErrInvalidLimit = errors.New("limit must be positive")

var log = commonlog.GetLogger("minic.history")

// Entry is one evaluation. Exactly one of Result and Error is set.
// Session identifies the store that recorded it.
type Entry struct {
	ID        int64
	Session   string
	Source    string
	Result    string
	Kind      string
	Error     string
	CreatedAt time.Time
}

// Failed reports whether the evaluation ended in an error.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Recorder accepts evaluations.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Store handles SQLite storage for history entries.
type Store struct {
	db      *sql.DB
	path    string
	session string
	mu      sync.Mutex
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	// Pragmas in the DSN apply to every pooled connection
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		result TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	session := uuid.New().String()
	log.Debugf("opened history at %s (session %s)", path, session)
	return &Store{db: db, path: path, session: session}, nil
}

func (s *Store) Path() string {
	return s.path
}

// Session is the identifier stamped on entries recorded through this Store.
// Every Open starts a new session.
func (s *Store) Session() string {
	return s.session
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores entry. A zero CreatedAt is replaced by the current time and
// an empty Session by the store's own.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.Session == "" {
		entry.Session = s.session
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO history (session, source, result, kind, error, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		entry.Session, entry.Source, entry.Result, entry.Kind, entry.Error, entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session, source, result, kind, error, created_at FROM history ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Session, &e.Source, &e.Result, &e.Kind, &e.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		e.CreatedAt = time.Unix(0, createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id int64) (Entry, error) {
	var e Entry
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, session, source, result, kind, error, created_at FROM history WHERE id = ?", id,
	).Scan(&e.ID, &e.Session, &e.Source, &e.Result, &e.Kind, &e.Error, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, fmt.Errorf("history entry %d: %w", id, err)
		}
		return Entry{}, fmt.Errorf("querying history entry: %w", err)
	}
	e.CreatedAt = time.Unix(0, createdAt)
	return e, nil
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM history")
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	return n, nil
}
