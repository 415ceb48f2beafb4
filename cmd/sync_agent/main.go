package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yourmoney-sync-agent/internal/api"
	"github.com/yourmoney-sync-agent/internal/config"
	"github.com/yourmoney-sync-agent/internal/data/sqlite"
	"github.com/yourmoney-sync-agent/internal/gateway"
	"github.com/yourmoney-sync-agent/internal/logger"
	"github.com/yourmoney-sync-agent/internal/platform/connectivity"
	"github.com/yourmoney-sync-agent/internal/platform/persistence"
	"github.com/yourmoney-sync-agent/internal/platform/remote"
	"github.com/yourmoney-sync-agent/internal/reconciler"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("sync_agent")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Open the on-device store
	db, err := sqlite.Open(appCtx, log, &cfg.SQLite)
	if err != nil {
		log.Error("Failed to open on-device store", "error", err)
		os.Exit(1)
	}

	// Initialize the remote store connection pool. The device may be
	// offline at startup; the pool connects lazily when first used.
	remoteDB, err := persistence.NewRemoteDB(appCtx, log, &cfg.Remote)
	if err != nil {
		log.Error("Failed to initialize remote store", "error", err)
		os.Exit(1)
	}

	// Initialize repositories and remote client
	recordRepo := sqlite.NewRecordRepository(log, db)
	queueRepo := sqlite.NewQueueRepository(log, db)
	remoteStore := remote.NewPostgresStore(log, remoteDB, cfg.Remote.RequestTimeout)

	// Initialize connectivity probe
	probe := connectivity.NewProbe(log, &cfg.Connectivity)
	go probe.Start(appCtx)

	// Initialize the mutation gateway
	gw := gateway.NewGateway(log, recordRepo, queueRepo, remoteStore, probe)

	// Initialize the reconciler and its runner
	rec, err := reconciler.NewReconciler(&cfg.Reconciler, cfg.WorkerPool.Size, queueRepo, recordRepo, remoteStore, log)
	if err != nil {
		log.Error("Failed to initialize reconciler", "error", err)
		os.Exit(1)
	}
	runner := reconciler.NewRunner(&cfg.Reconciler, rec, probe, log)
	go runner.Start(appCtx)

	// Initialize REST server
	server := api.NewServer(log, cfg, gw, rec, queueRepo, probe)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context; stops the probe and the runner
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so no new mutations arrive
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Release the reconciler worker pool
	rec.Shutdown()

	// Close the remote connection pool
	remoteDB.Close()

	// Close the on-device store last; buffered entries survive restart
	if err = db.Close(); err != nil {
		log.Error("Error closing on-device store", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Agent shutdown completed with errors")
	} else {
		log.Info("Agent shutdown completed successfully")
	}
}
