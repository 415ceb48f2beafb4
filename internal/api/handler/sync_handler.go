package handler

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/yourmoney-sync-agent/internal/domain/syncqueue"
	"github.com/yourmoney-sync-agent/internal/platform/connectivity"
	"github.com/yourmoney-sync-agent/internal/reconciler"
)

// Drainer triggers a drain pass over the sync queue.
type Drainer interface {
	Drain(ctx context.Context) (*reconciler.Result, error)
}

// SyncHandler exposes manual sync triggering and queue inspection to the UI.
type SyncHandler struct {
	drainer Drainer
	queue   syncqueue.Repository
	oracle  connectivity.Oracle
	logger  *slog.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(logger *slog.Logger, drainer Drainer, queue syncqueue.Repository, oracle connectivity.Oracle) *SyncHandler {
	return &SyncHandler{
		drainer: drainer,
		queue:   queue,
		oracle:  oracle,
		logger:  logger,
	}
}

// Trigger runs a drain pass immediately. A pass already in progress is not
// doubled; the caller gets 202 and the in-flight pass covers its entries.
func (h *SyncHandler) Trigger(c *gin.Context) {
	result, err := h.drainer.Drain(c.Request.Context())
	if err != nil {
		h.logger.Error("Manual sync failed", "error", err)
		RespondInternalError(c)
		return
	}

	if result.Skipped {
		RespondAccepted(c, result)
		return
	}

	RespondOK(c, result)
}

// Status reports queue depth and current connectivity.
func (h *SyncHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	pending, err := h.queue.CountByStatus(ctx, syncqueue.StatusPending)
	if err != nil {
		h.logger.Error("Failed to count pending sync entries", "error", err)
		RespondInternalError(c)
		return
	}

	dead, err := h.queue.CountByStatus(ctx, syncqueue.StatusDead)
	if err != nil {
		h.logger.Error("Failed to count dead sync entries", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, SyncStatusResponse{
		Pending:   pending,
		Dead:      dead,
		Reachable: h.oracle.Reachable(ctx),
	})
}
