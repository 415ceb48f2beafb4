// Package reconciler drains the sync queue against the remote store when
// connectivity allows, in FIFO order per record, removing entries as their
// replay succeeds and leaving failed ones for the next pass.
package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/yourmoney-sync-agent/internal/config"
	"github.com/yourmoney-sync-agent/internal/domain/record"
	"github.com/yourmoney-sync-agent/internal/domain/syncqueue"
	"github.com/yourmoney-sync-agent/internal/platform/remote"
)

// Result aggregates one drain pass
type Result struct {
	Synced  int      `json:"synced"`
	Failed  int      `json:"failed"`
	Dead    int      `json:"dead"`
	Skipped bool     `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Reconciler replays pending sync queue entries against the remote store.
// Entries referencing the same record are applied strictly in enqueue
// order; entries for distinct records drain concurrently on a worker pool.
type Reconciler struct {
	queue       syncqueue.Repository
	records     record.Repository
	remote      remote.Store
	logger      *slog.Logger
	batchSize   int
	maxAttempts int
	pool        *ants.Pool

	// Coalesces overlapping drain triggers; a second caller gets a
	// skipped result instead of a concurrent pass.
	draining atomic.Bool
}

// NewReconciler creates a reconciler with a worker pool of the given size.
func NewReconciler(
	cfg *config.ReconcilerConfig,
	poolSize int,
	queue syncqueue.Repository,
	records record.Repository,
	remoteStore remote.Store,
	logger *slog.Logger,
) (*Reconciler, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	return &Reconciler{
		queue:       queue,
		records:     records,
		remote:      remoteStore,
		logger:      logger,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		pool:        pool,
	}, nil
}

// Shutdown releases the worker pool.
func (r *Reconciler) Shutdown() {
	r.logger.Info("Shutting down reconciler worker pool", "running_workers", r.pool.Running())
	r.pool.Release()
}

// Drain processes the current snapshot of pending entries. One failed entry
// stops only the remaining entries for its own record; unrelated records
// keep draining, so partial progress is the steady state under flaky
// connectivity. Re-running against an empty queue is a cheap no-op.
func (r *Reconciler) Drain(ctx context.Context) (*Result, error) {
	if !r.draining.CompareAndSwap(false, true) {
		r.logger.Debug("Drain already in progress, coalescing trigger")
		return &Result{Skipped: true}, nil
	}
	defer r.draining.Store(false)

	entries, err := r.queue.ListPending(ctx, r.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending sync entries: %w", err)
	}

	if len(entries) == 0 {
		r.logger.Debug("No pending sync entries.")
		return &Result{}, nil
	}

	r.logger.Info("Draining sync queue", "pending", len(entries))

	// A record with a dead entry is held entirely: replaying a later
	// mutation over the one that died would reorder the record's history.
	deadRecords, err := r.queue.DeadRecordIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead sync records: %w", err)
	}

	groups := groupByRecord(entries)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result Result
	)

	for _, group := range groups {
		group := group

		if _, blocked := deadRecords[group[0].RecordID]; blocked {
			r.logger.Warn("Holding entries for record with a dead entry",
				"record_id", group[0].RecordID,
				"held", len(group),
			)
			continue
		}

		wg.Add(1)

		run := func() {
			defer wg.Done()
			synced, failed, dead, errs := r.drainGroup(ctx, group)

			mu.Lock()
			result.Synced += synced
			result.Failed += failed
			result.Dead += dead
			result.Errors = append(result.Errors, errs...)
			mu.Unlock()
		}

		// A full pool degrades to inline processing rather than dropping
		// the group; ordering within the group is unaffected.
		if err := r.pool.Submit(run); err != nil {
			run()
		}
	}

	wg.Wait()

	r.logger.Info("Drain pass complete",
		"synced", result.Synced,
		"failed", result.Failed,
		"dead", result.Dead,
	)

	return &result, nil
}

// drainGroup replays one record's entries strictly in enqueue order. The
// first failure stops the group: applying a later entry ahead of an earlier
// one for the same record would reorder its history.
func (r *Reconciler) drainGroup(ctx context.Context, group []*syncqueue.Entry) (synced, failed, dead int, errs []string) {
	for i, entry := range group {
		if err := r.apply(ctx, entry); err != nil {
			failed++
			errs = append(errs, fmt.Sprintf("%s %s: %v", entry.Op, entry.RecordID, err))
			if r.recordFailure(ctx, entry) {
				dead++
			}

			skipped := len(group) - i - 1
			if skipped > 0 {
				r.logger.Debug("Holding later entries for record after failure",
					"record_id", entry.RecordID,
					"held", skipped,
				)
			}
			return synced, failed, dead, errs
		}

		if err := r.queue.Remove(ctx, entry.ID); err != nil {
			// The remote call succeeded but the entry survived; the next
			// pass replays it, which every operation tolerates.
			r.logger.Error("Failed to remove replayed sync entry",
				"entry_id", entry.ID,
				"error", err,
			)
			failed++
			errs = append(errs, fmt.Sprintf("remove entry %s: %v", entry.ID, err))
			return synced, failed, dead, errs
		}

		if entry.Op == syncqueue.OpDelete {
			if err := r.records.Remove(ctx, entry.RecordID); err != nil {
				r.logger.Warn("Failed to purge deleted record from cache",
					"record_id", entry.RecordID,
					"error", err,
				)
			}
		}

		synced++
		r.logger.Info("Sync entry replayed",
			"entry_id", entry.ID,
			"record_id", entry.RecordID,
			"operation", string(entry.Op),
		)
	}

	return synced, failed, dead, errs
}

// apply dispatches one entry to the matching remote call. The entry's
// payload is authoritative; the local cache is never consulted here.
func (r *Reconciler) apply(ctx context.Context, entry *syncqueue.Entry) error {
	switch entry.Op {
	case syncqueue.OpCreate:
		// Idempotency guard: a partially-completed earlier pass may have
		// created the row before the entry could be removed.
		exists, err := r.remote.RecordExists(ctx, entry.RecordID)
		if err != nil {
			return err
		}
		if exists {
			r.logger.Info("Record already exists remotely, skipping create",
				"record_id", entry.RecordID,
			)
			return nil
		}

		var rec record.Record
		if err := json.Unmarshal(entry.Payload, &rec); err != nil {
			return fmt.Errorf("unmarshal create payload: %w", err)
		}
		_, err = r.remote.CreateRecord(ctx, &rec)
		return err

	case syncqueue.OpUpdate:
		var updates record.Updates
		if err := json.Unmarshal(entry.Payload, &updates); err != nil {
			return fmt.Errorf("unmarshal update payload: %w", err)
		}
		_, err := r.remote.UpdateRecord(ctx, entry.RecordID, &updates)
		return err

	case syncqueue.OpDelete:
		return r.remote.DeleteRecord(ctx, entry.RecordID)

	default:
		return fmt.Errorf("unknown operation %q", entry.Op)
	}
}

// recordFailure bumps the entry's attempt count and parks it as dead once
// the retry budget is exhausted. Returns true when the entry went dead.
func (r *Reconciler) recordFailure(ctx context.Context, entry *syncqueue.Entry) bool {
	if err := r.queue.IncrementAttempts(ctx, entry.ID); err != nil {
		r.logger.Error("Failed to increment attempts for sync entry",
			"entry_id", entry.ID,
			"error", err,
		)
		return false
	}

	if entry.Attempts+1 < r.maxAttempts {
		return false
	}

	r.logger.Warn("Max replay attempts reached, marking sync entry dead",
		"entry_id", entry.ID,
		"record_id", entry.RecordID,
		"attempts_made", entry.Attempts+1,
	)
	if err := r.queue.MarkDead(ctx, entry.ID); err != nil {
		r.logger.Error("Failed to mark sync entry dead",
			"entry_id", entry.ID,
			"error", err,
		)
		return false
	}

	return true
}

// groupByRecord partitions entries by record id, preserving enqueue order
// inside each group and first-appearance order across groups.
func groupByRecord(entries []*syncqueue.Entry) [][]*syncqueue.Entry {
	index := make(map[string]int, len(entries))
	var groups [][]*syncqueue.Entry

	for _, entry := range entries {
		i, ok := index[entry.RecordID]
		if !ok {
			i = len(groups)
			index[entry.RecordID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], entry)
	}

	return groups
}
