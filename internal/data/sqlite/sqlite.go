// Package sqlite implements the on-device record store and sync queue on a
// single SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
	"github.com/yourmoney-sync-agent/internal/config"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside a transaction when a caller needs atomicity.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ DBTX = (*sql.DB)(nil)
var _ DBTX = (*sql.Tx)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS offline_transactions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	amount TEXT NOT NULL,
	date TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_offline_transactions_user
	ON offline_transactions(user_id);

CREATE TABLE IF NOT EXISTS sync_queue (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	record_id TEXT NOT NULL,
	operation TEXT NOT NULL,
	payload TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'PENDING',
	attempts INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	last_attempt_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_sync_queue_record
	ON sync_queue(record_id);

CREATE INDEX IF NOT EXISTS idx_sync_queue_status
	ON sync_queue(status);
`

// Open opens the on-device database, applies connection settings for
// concurrent access and ensures the schema exists.
func Open(ctx context.Context, logger *slog.Logger, cfg *config.SQLiteConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_journal=WAL&_busy_timeout=%d", cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to initialize sqlite schema: %w", err)
	}

	logger.Info("Opened on-device database", "path", cfg.Path)

	return db, nil
}

// timeFormat is the stored representation of all timestamps. The fractional
// part is fixed width so the strings compare the same way the instants do;
// RFC3339Nano trims trailing zeros, which breaks lexicographic comparison.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	// RFC3339Nano accepts any fractional width, including none, so rows
	// written before the fixed-width format still scan.
	return time.Parse(time.RFC3339Nano, s)
}
