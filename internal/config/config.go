// Package config provides configuration structures and validation for the
// sync agent. It handles environment-based configuration for all major
// components: the local HTTP server, the on-device SQLite store, the remote
// store connection, connectivity probing and the reconciliation loop.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete agent configuration. Each field represents a
// subsystem's configuration and is validated during startup.
type Config struct {
	Application  ApplicationConfig
	Logging      LoggingConfig
	Server       ServerConfig
	SQLite       SQLiteConfig
	Remote       RemoteConfig
	Connectivity ConnectivityConfig
	Reconciler   ReconcilerConfig
	WorkerPool   WorkerPoolConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains the local HTTP server configuration
type ServerConfig struct {
	Port            int           // Port to listen on (loopback, UI-facing)
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// SQLiteConfig contains the on-device store configuration
type SQLiteConfig struct {
	Path        string        // Database file path
	BusyTimeout time.Duration // SQLite busy handler timeout
}

// RemoteConfig contains the remote store connection configuration
type RemoteConfig struct {
	URL             string        // Postgres connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Minimum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	RequestTimeout  time.Duration // Per-call timeout for remote CRUD operations
	MigrationsPath  string        // Path to migration files; empty skips migrations
}

// ConnectivityConfig contains reachability probe configuration
type ConnectivityConfig struct {
	ProbeAddress  string        // host:port dialed to decide reachability
	ProbeTimeout  time.Duration // Dial timeout for a single probe
	ProbeInterval time.Duration // Interval between background probes
}

// ReconcilerConfig contains sync queue drain configuration
type ReconcilerConfig struct {
	PollingInterval time.Duration // Interval between automatic drain passes
	BatchSize       int           // Maximum entries fetched per drain
	MaxAttempts     int           // Replay attempts before an entry is marked dead
}

// WorkerPoolConfig contains reconciler worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of concurrent per-record drain workers
}

// validate performs validation of all configuration values, ensuring they
// meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate SQLite config
	if c.SQLite.Path == "" {
		validationErrors = append(validationErrors, "SQLITE_PATH is required")
	}
	if c.SQLite.BusyTimeout <= 0 {
		validationErrors = append(validationErrors, "SQLITE_BUSY_TIMEOUT must be greater than 0")
	}

	// Validate Remote config
	if c.Remote.URL == "" {
		validationErrors = append(validationErrors, "REMOTE_URL is required")
	}
	if c.Remote.MaxConns <= 0 {
		validationErrors = append(validationErrors, "REMOTE_MAX_CONNS must be greater than 0")
	}
	if c.Remote.MinConns < 0 {
		validationErrors = append(validationErrors, "REMOTE_MIN_CONNS must not be negative")
	}
	if c.Remote.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "REMOTE_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Remote.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "REMOTE_MAX_CONN_IDLE_TIME must be greater than 0")
	}
	if c.Remote.RequestTimeout <= 0 {
		validationErrors = append(validationErrors, "REMOTE_REQUEST_TIMEOUT must be greater than 0")
	}

	// Validate Connectivity config
	if c.Connectivity.ProbeAddress == "" {
		validationErrors = append(validationErrors, "CONNECTIVITY_PROBE_ADDRESS is required")
	}
	if c.Connectivity.ProbeTimeout <= 0 {
		validationErrors = append(validationErrors, "CONNECTIVITY_PROBE_TIMEOUT must be greater than 0")
	}
	if c.Connectivity.ProbeInterval <= 0 {
		validationErrors = append(validationErrors, "CONNECTIVITY_PROBE_INTERVAL must be greater than 0")
	}

	// Validate Reconciler config
	if c.Reconciler.PollingInterval <= 0 {
		validationErrors = append(validationErrors, "RECONCILER_POLLING_INTERVAL must be greater than 0")
	}
	if c.Reconciler.BatchSize <= 0 {
		validationErrors = append(validationErrors, "RECONCILER_BATCH_SIZE must be greater than 0")
	}
	if c.Reconciler.MaxAttempts <= 0 {
		validationErrors = append(validationErrors, "RECONCILER_MAX_ATTEMPTS must be greater than 0")
	}

	// Validate WorkerPool config
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
