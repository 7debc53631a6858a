// Package sqlite implements the archive's store contract on an embedded
// SQLite database. All writes are single atomic INSERT OR REPLACE
// statements; the engine serializes concurrent writers at the connection
// level, and no in-process locking is needed on top of that.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Executor runs parameterized statements against one logical database.
// It is the run/get/all surface this package needs from the engine;
// *sql.DB and *sql.Tx both satisfy it.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type DB struct {
	*sql.DB
}

type Config struct {
	// Path is the database file path, or ":memory:" for an in-memory
	// database.
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeoutMS   int
}

// Open opens (creating if needed) the archive database and bootstraps the
// schema. The WAL journal keeps readers unblocked by the writer; the busy
// timeout covers writer contention instead of surfacing SQLITE_BUSY.
func Open(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	busyTimeout := cfg.BusyTimeoutMS
	if busyTimeout <= 0 {
		busyTimeout = 5000
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d", cfg.Path, busyTimeout)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	wrapped := &DB{db}
	if err := wrapped.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return wrapped, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// EnsureSchema creates the archive tables and indexes if they do not exist.
// Non-primitive fields are TEXT columns holding serialized payloads;
// global_modification holds INTEGER 0/1. Schema evolution beyond this
// bootstrap is an external concern.
func (db *DB) EnsureSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS transactions (
		tx_id            TEXT PRIMARY KEY,
		app_receipt_id   TEXT,
		timestamp        INTEGER NOT NULL,
		cycle_number     INTEGER NOT NULL,
		data             TEXT,
		original_tx_data TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_cycle_ts
		ON transactions(cycle_number, timestamp);
	CREATE INDEX IF NOT EXISTS idx_transactions_app_receipt_id
		ON transactions(app_receipt_id);

	CREATE TABLE IF NOT EXISTS receipts (
		receipt_id          TEXT PRIMARY KEY,
		timestamp           INTEGER NOT NULL,
		apply_timestamp     INTEGER NOT NULL,
		cycle               INTEGER NOT NULL,
		signed_receipt      TEXT,
		app_receipt_data    TEXT,
		before_states       TEXT,
		after_states        TEXT,
		execution_shard_key TEXT,
		global_modification INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_receipts_cycle_ts
		ON receipts(cycle, timestamp);
	CREATE INDEX IF NOT EXISTS idx_receipts_execution_shard_key
		ON receipts(execution_shard_key);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create archive tables: %w", err)
	}
	return nil
}
