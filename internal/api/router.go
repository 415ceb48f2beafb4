package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourmoney-sync-agent/internal/api/handler"
	"github.com/yourmoney-sync-agent/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the agent
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	transactionHandler *handler.TransactionHandler,
	syncHandler *handler.SyncHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Transaction operations
		transactions := v1.Group("/transactions")
		{
			transactions.POST("", transactionHandler.Create)
			transactions.PATCH("/:id", transactionHandler.Update)
			transactions.DELETE("/:id", transactionHandler.Delete)
		}

		// Per-user transaction history
		users := v1.Group("/users")
		{
			users.GET("/:id/transactions", transactionHandler.GetByUserID)
		}

		// Sync queue operations
		sync := v1.Group("/sync")
		{
			sync.POST("", syncHandler.Trigger)
			sync.GET("/status", syncHandler.Status)
		}
	}

	// Health check endpoint for the UI's liveness polling
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
