package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yourmoney-sync-agent/internal/config"
)

// Querier supports database operations for both pool and transactions
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Ensure interfaces are satisfied (compile-time check)
var _ Querier = (*pgxpool.Pool)(nil)
var _ Querier = (pgx.Tx)(nil)

// RemoteDB holds the connection pool to the remote store. Unlike a server
// deployment, the pool here belongs to a single device agent, so it is
// sized small and failure to connect at startup is not fatal to the app.
// Callers decide whether to keep running offline.
type RemoteDB struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRemoteDB builds the pool for the remote store. Migrations run first
// when a migrations path is configured (development setups only).
func NewRemoteDB(ctx context.Context, logger *slog.Logger, cfg *config.RemoteConfig) (*RemoteDB, error) {
	if cfg.MigrationsPath != "" {
		if err := RunMigrations(cfg.URL, cfg.MigrationsPath); err != nil {
			return nil, err
		}
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse remote connection string: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote connection pool: %w", err)
	}

	// No startup ping: the device may well be offline right now, and that
	// is an expected state, not an initialization failure.
	logger.Info("Remote store pool initialized")

	return &RemoteDB{
		pool:   pool,
		logger: logger,
	}, nil
}

func (db *RemoteDB) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *RemoteDB) Close() {
	db.pool.Close()
	db.logger.Info("Closed remote store pool")
}
