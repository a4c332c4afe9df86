// Package db provides the PostgreSQL backend for the record log and the candidate store.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool   *pgxpool.Pool
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a DB
type Option func(*DB)

// WithClock overrides the time source used for candidate bookkeeping
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		if now != nil {
			db.now = now
		}
	}
}

// WithLogger sets the logger for skipped rows
func WithLogger(logger *zap.Logger) Option {
	return func(db *DB) {
		if logger != nil {
			db.logger = logger.Named("db")
		}
	}
}

// Connect establishes a connection pool to the database and ensures the schema exists
func Connect(ctx context.Context, databaseURL string, opts ...Option) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{pool: pool, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(db)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the records and tool_candidates tables if they are missing
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Describe names the backend for record metadata
func (db *DB) Describe() string {
	return "postgres"
}

// Close closes the connection pool. It is safe to call more than once.
func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS records (
		seq          BIGSERIAL PRIMARY KEY,
		id           TEXT NOT NULL UNIQUE,
		kind         TEXT NOT NULL,
		version      INTEGER NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		source       TEXT NOT NULL DEFAULT '',
		candidate_id TEXT NOT NULL DEFAULT '',
		raw_input    TEXT NOT NULL DEFAULT '',
		data         JSONB NOT NULL,
		meta         JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS records_kind_candidate_idx
		ON records (kind, candidate_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS tool_candidates (
		candidate_id   TEXT PRIMARY KEY,
		tool_name      TEXT NOT NULL,
		developer      TEXT NOT NULL DEFAULT '',
		website_domain TEXT NOT NULL DEFAULT '',
		website_url    TEXT NOT NULL DEFAULT '',
		logo_url       TEXT NOT NULL DEFAULT '',
		confidence     DOUBLE PRECISION NOT NULL DEFAULT 0,
		notes          TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL,
		last_accessed  TIMESTAMPTZ NOT NULL,
		access_count   INTEGER NOT NULL DEFAULT 1
	)`,
}
