// Package api serves the loopback HTTP interface the mobile UI talks to.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourmoney-sync-agent/internal/api/handler"
	"github.com/yourmoney-sync-agent/internal/config"
	"github.com/yourmoney-sync-agent/internal/domain/syncqueue"
	"github.com/yourmoney-sync-agent/internal/gateway"
	"github.com/yourmoney-sync-agent/internal/platform/connectivity"
)

// Server handles HTTP requests and manages the listener's lifecycle
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// NewServer creates and configures the agent's HTTP server
func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	gw gateway.Gateway,
	drainer handler.Drainer,
	queue syncqueue.Repository,
	oracle connectivity.Oracle,
) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	transactionHandler := handler.NewTransactionHandler(log, gw)
	syncHandler := handler.NewSyncHandler(log, drainer, queue, oracle)

	setupRouter(log, httpRouter, transactionHandler, syncHandler)

	// Loopback only: the agent serves the UI on the same device.
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
