// Package sqlite provides a telemetry.Store backed by a local SQLite
// database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rhuss/askgate/pkg/api"
	"github.com/rhuss/askgate/pkg/telemetry"
)

const schema = `
CREATE TABLE IF NOT EXISTS telemetry (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	received_at TEXT NOT NULL,
	remote_addr TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT '',
	data        TEXT NOT NULL
)`

// Store is a SQLite-backed telemetry store.
type Store struct {
	db *sql.DB
}

// Ensure Store implements telemetry.Store at compile time.
var _ telemetry.Store = (*Store)(nil)

// New opens (or creates) the database at path.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Append inserts a record.
func (s *Store) Append(ctx context.Context, rec *api.TelemetryRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO telemetry (id, received_at, remote_addr, user_agent, data) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.ReceivedAt.UTC().Format(time.RFC3339Nano), rec.RemoteAddr, rec.UserAgent, string(rec.Data),
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// List returns records in insertion order.
func (s *Store) List(ctx context.Context, opts telemetry.ListOptions) ([]*api.TelemetryRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	offset := max(opts.Offset, 0)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, received_at, remote_addr, user_agent, data FROM telemetry ORDER BY seq LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []*api.TelemetryRecord
	for rows.Next() {
		var rec api.TelemetryRecord
		var receivedAt, data string
		if err := rows.Scan(&rec.ID, &receivedAt, &rec.RemoteAddr, &rec.UserAgent, &data); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec.ReceivedAt, err = time.Parse(time.RFC3339Nano, receivedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: record %s: %v", telemetry.ErrCorrupt, rec.ID, err)
		}
		rec.Data = []byte(data)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Count returns the number of records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM telemetry`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
