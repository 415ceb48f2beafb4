package reconciler

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourmoney-sync-agent/internal/config"
	"github.com/yourmoney-sync-agent/internal/platform/connectivity"
)

// Runner drives drain passes from two triggers: a polling ticker and the
// connectivity oracle's offline-to-online transitions. Manual drains go
// straight through Reconciler.Drain; its coalescing guard keeps the
// triggers from stacking concurrent passes.
type Runner struct {
	reconciler   *Reconciler
	oracle       connectivity.Oracle
	logger       *slog.Logger
	pollInterval time.Duration
}

func NewRunner(
	cfg *config.ReconcilerConfig,
	rec *Reconciler,
	oracle connectivity.Oracle,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		reconciler:   rec,
		oracle:       oracle,
		logger:       logger,
		pollInterval: cfg.PollingInterval,
	}
}

// Start runs drain passes until the context is canceled.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("Starting reconciler runner",
		"poll_interval", r.pollInterval.String(),
	)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	transitions := r.oracle.Subscribe()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reconciler runner stopping due to context cancellation.")
			return
		case <-ticker.C:
			if !r.oracle.Reachable(ctx) {
				r.logger.Debug("Reconciler tick skipped: remote unreachable")
				continue
			}
			r.logger.Debug("Reconciler tick: draining sync queue")
			r.drain(ctx)
		case reachable := <-transitions:
			if !reachable {
				continue
			}
			r.logger.Info("Connectivity restored, draining sync queue")
			r.drain(ctx)
		}
	}
}

func (r *Runner) drain(ctx context.Context) {
	if _, err := r.reconciler.Drain(ctx); err != nil {
		r.logger.Error("Error during sync queue drain", "error", err)
	}
}
