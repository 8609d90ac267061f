package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	week INTEGER NOT NULL,
	stress_level REAL NOT NULL,
	prediction TEXT NOT NULL DEFAULT '',
	tables_scored INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at DESC);
`

// SQLiteStore is a Store backed by a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: set WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create tables: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Save inserts r. A zero CreatedAt is stamped with the store clock.
func (s *SQLiteStore) Save(ctx context.Context, r Record) error {
	if r.RunID == "" {
		return fmt.Errorf("history: empty run id: %w", ErrInvalidRun)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, week, stress_level, prediction, tables_scored, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Week, r.StressLevel, r.Prediction, r.TablesScored, r.CreatedAt.UnixMilli())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("history: run %s: %w", r.RunID, ErrDuplicateRun)
		}
		return fmt.Errorf("history: save run %s: %w", r.RunID, err)
	}
	return nil
}

// Latest returns up to n records ordered by creation time, newest first.
func (s *SQLiteStore) Latest(ctx context.Context, n int) ([]Record, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, week, stress_level, prediction, tables_scored, created_at
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r       Record
			created int64
		)
		if err := rows.Scan(&r.RunID, &r.Week, &r.StressLevel, &r.Prediction, &r.TablesScored, &created); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		r.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate runs: %w", err)
	}
	return out, nil
}

// Count returns the number of stored runs.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&n); err != nil {
		return 0, fmt.Errorf("history: count runs: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
