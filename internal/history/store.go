package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Fixed-width so recorded_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Entry is one organized file.
type Entry struct {
	ID           int64
	OutcomeID    string
	RecordedAt   time.Time
	SourceName   string
	SourcePath   string
	Folder       string
	Destination  string
	Category     string
	Confidence   float64
	OverrideRule string
	RunID        string
}

// Store is the SQLite-backed history log.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the history database at path and applies migrations.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection, not just the first.
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; concurrent workers queue on the pool.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append inserts an entry. A missing OutcomeID or RecordedAt is filled in.
// Appending the same OutcomeID twice is a no-op.
func (s *Store) Append(ctx context.Context, e Entry) (Entry, error) {
	if s == nil || s.db == nil {
		return Entry{}, errors.New("history store is closed")
	}
	if strings.TrimSpace(e.SourceName) == "" || strings.TrimSpace(e.Destination) == "" {
		return Entry{}, errors.New("history entry requires source name and destination")
	}
	if e.OutcomeID == "" {
		e.OutcomeID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}
	e.RecordedAt = e.RecordedAt.UTC()

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO entries (
            outcome_id, recorded_at, source_name, source_path, folder,
            destination, category, confidence, override_rule, run_id
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(outcome_id) DO NOTHING`,
		e.OutcomeID,
		e.RecordedAt.Format(timeLayout),
		e.SourceName,
		e.SourcePath,
		e.Folder,
		e.Destination,
		e.Category,
		e.Confidence,
		nullableString(e.OverrideRule),
		nullableString(e.RunID),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert history entry: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return s.byOutcomeID(ctx, e.OutcomeID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id
	return e, nil
}

const entryColumns = `id, outcome_id, recorded_at, source_name, source_path, folder,
    destination, category, confidence, override_rule, run_id`

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries ORDER BY recorded_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListRun returns the entries written by one run in insertion order.
func (s *Store) ListRun(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Count returns the number of recorded entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

func (s *Store) byOutcomeID(ctx context.Context, outcomeID string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE outcome_id = ?`, outcomeID)
	e, err := scanEntry(row)
	if err != nil {
		return Entry{}, fmt.Errorf("get history entry: %w", err)
	}
	return e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e          Entry
		recordedAt string
		override   sql.NullString
		runID      sql.NullString
	)
	if err := row.Scan(
		&e.ID, &e.OutcomeID, &recordedAt, &e.SourceName, &e.SourcePath, &e.Folder,
		&e.Destination, &e.Category, &e.Confidence, &override, &runID,
	); err != nil {
		return Entry{}, err
	}
	ts, err := time.Parse(timeLayout, recordedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse recorded_at: %w", err)
	}
	e.RecordedAt = ts
	e.OverrideRule = override.String
	e.RunID = runID.String
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
