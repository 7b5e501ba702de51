// Package postgres provides a PostgreSQL telemetry.Store. Payloads are
// kept in a JSONB column so they can be queried in place.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/askgate/pkg/api"
	"github.com/rhuss/askgate/pkg/telemetry"
)

// Store is a PostgreSQL-backed telemetry store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements telemetry.Store at compile time.
var _ telemetry.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}
	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}
	return s, nil
}

// Append inserts a record.
func (s *Store) Append(ctx context.Context, rec *api.TelemetryRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO telemetry (id, received_at, remote_addr, user_agent, data)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID, rec.ReceivedAt, rec.RemoteAddr, rec.UserAgent, []byte(rec.Data))
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// List returns records in insertion order.
func (s *Store) List(ctx context.Context, opts telemetry.ListOptions) ([]*api.TelemetryRecord, error) {
	query := `SELECT id, received_at, remote_addr, user_agent, data FROM telemetry ORDER BY seq OFFSET $1`
	args := []any{max(opts.Offset, 0)}
	if opts.Limit > 0 {
		query += " LIMIT $2"
		args = append(args, opts.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*api.TelemetryRecord, error) {
		var rec api.TelemetryRecord
		var data []byte
		if err := row.Scan(&rec.ID, &rec.ReceivedAt, &rec.RemoteAddr, &rec.UserAgent, &data); err != nil {
			return nil, err
		}
		rec.Data = data
		return &rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning records: %w", err)
	}
	return recs, nil
}

// Count returns the number of records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM telemetry`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
