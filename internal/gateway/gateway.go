// Package gateway implements the offline-aware mutation gateway: it routes
// each create/update/delete either straight to the remote store or into the
// local cache plus sync queue, and keeps both sides consistent with
// whichever path was taken.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourmoney-sync-agent/internal/domain/record"
	"github.com/yourmoney-sync-agent/internal/domain/syncqueue"
	"github.com/yourmoney-sync-agent/internal/platform/connectivity"
	"github.com/yourmoney-sync-agent/internal/platform/remote"
)

// ErrEmptyUpdate indicates an update request with no fields set
var ErrEmptyUpdate = errors.New("update must change at least one field")

// GatewayImpl implements the Gateway interface
type GatewayImpl struct {
	records record.Repository
	queue   syncqueue.Repository
	remote  remote.Store
	oracle  connectivity.Oracle
	logger  *slog.Logger
}

// NewGateway creates a new mutation gateway
func NewGateway(
	logger *slog.Logger,
	records record.Repository,
	queue syncqueue.Repository,
	remoteStore remote.Store,
	oracle connectivity.Oracle,
) Gateway {
	return &GatewayImpl{
		records: records,
		queue:   queue,
		remote:  remoteStore,
		oracle:  oracle,
		logger:  logger,
	}
}

// CreateTransaction generates the record id client-side before any network
// call, so the same id serves both the online and the buffered path.
func (g *GatewayImpl) CreateTransaction(ctx context.Context, userID, name, category string, amount decimal.Decimal, date time.Time) (*record.Record, bool, error) {
	rec, err := record.New(userID, name, category, amount, date)
	if err != nil {
		return nil, false, err
	}

	if g.oracle.Reachable(ctx) {
		stored, err := g.remote.CreateRecord(ctx, rec)
		if err == nil {
			g.cachePut(ctx, stored)
			g.logger.Info("Transaction created remotely",
				"record_id", stored.ID,
				"user_id", userID,
			)
			return stored, false, nil
		}
		// A transient remote failure must not drop the mutation; it
		// degrades to the buffering path exactly as if offline.
		g.logger.Warn("Remote create failed, buffering locally",
			"record_id", rec.ID,
			"error", err,
		)
	}

	if err := g.buffer(ctx, rec, syncqueue.OpCreate, rec); err != nil {
		return nil, false, err
	}

	g.logger.Info("Transaction created offline",
		"record_id", rec.ID,
		"user_id", userID,
	)
	return rec, true, nil
}

// UpdateTransaction applies the delta remotely when possible; otherwise it
// merges the delta into whatever copy the cache holds and buffers it.
func (g *GatewayImpl) UpdateTransaction(ctx context.Context, id string, updates *record.Updates) (*record.Record, bool, error) {
	if updates == nil || updates.IsEmpty() {
		return nil, false, ErrEmptyUpdate
	}

	if g.oracle.Reachable(ctx) {
		stored, err := g.remote.UpdateRecord(ctx, id, updates)
		if err == nil {
			g.cachePut(ctx, stored)
			g.logger.Info("Transaction updated remotely", "record_id", id)
			return stored, false, nil
		}
		// Remote not-found is buffered too: the record may only exist
		// locally, created offline and not yet replayed.
		g.logger.Warn("Remote update failed, buffering locally",
			"record_id", id,
			"error", err,
		)
	}

	merged, err := g.records.GetByID(ctx, id)
	if err != nil {
		var notFound record.ErrRecordNotFound
		if !errors.As(err, &notFound) {
			return nil, false, err
		}
		// Nothing cached: synthesize a minimal record so the optimistic
		// read-back has something to show. The queue payload, not this
		// placeholder, is what replays remotely.
		now := time.Now().UTC()
		merged = &record.Record{ID: id, CreatedAt: now, UpdatedAt: now}
	}
	updates.Apply(merged)

	if err := g.buffer(ctx, merged, syncqueue.OpUpdate, updates); err != nil {
		return nil, false, err
	}

	g.logger.Info("Transaction updated offline", "record_id", id)
	return merged, true, nil
}

// DeleteTransaction removes the record remotely when possible. A buffered
// delete supersedes every earlier unsynced mutation of the record: pending
// entries are cleared, and if the record never reached the remote store at
// all, nothing needs to replay.
func (g *GatewayImpl) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	if g.oracle.Reachable(ctx) {
		if err := g.remote.DeleteRecord(ctx, id); err == nil {
			if err := g.records.Remove(ctx, id); err != nil {
				return false, err
			}
			if err := g.queue.ClearForRecord(ctx, id); err != nil {
				return false, err
			}
			g.logger.Info("Transaction deleted remotely", "record_id", id)
			return false, nil
		} else {
			g.logger.Warn("Remote delete failed, buffering locally",
				"record_id", id,
				"error", err,
			)
		}
	}

	neverSynced, err := g.queue.HasPendingCreate(ctx, id)
	if err != nil {
		return false, err
	}

	if err := g.queue.ClearForRecord(ctx, id); err != nil {
		return false, err
	}

	if neverSynced {
		// Created offline, deleted offline: the remote store never saw
		// this record, so the create is simply never transmitted.
		if err := g.records.Remove(ctx, id); err != nil {
			return false, err
		}
		g.logger.Info("Offline-only transaction discarded", "record_id", id)
		return true, nil
	}

	entry, err := syncqueue.NewEntry(id, syncqueue.OpDelete, nil)
	if err != nil {
		return false, err
	}
	if err := g.queue.Enqueue(ctx, entry); err != nil {
		return false, err
	}

	// The cached record stays until the delete is confirmed remotely; the
	// list path masks it out so the UI stops showing it immediately.
	g.logger.Info("Transaction delete buffered", "record_id", id)
	return true, nil
}

// ListTransactions serves from the remote store when reachable and
// non-empty, refreshing the cache on the way; otherwise it serves the
// cache with pending deletes masked out, newest first.
func (g *GatewayImpl) ListTransactions(ctx context.Context, userID string, limit int) ([]*record.Record, bool, error) {
	if g.oracle.Reachable(ctx) {
		records, err := g.remote.QueryRecords(ctx, userID, limit)
		if err == nil && len(records) > 0 {
			for _, rec := range records {
				g.cachePut(ctx, rec)
			}
			return records, false, nil
		}
		if err != nil {
			g.logger.Warn("Remote query failed, serving cache",
				"user_id", userID,
				"error", err,
			)
		}
	}

	records := g.records.GetAll(ctx, userID)

	pendingDeletes, err := g.queue.PendingDeleteIDs(ctx)
	if err != nil {
		g.logger.Warn("Failed to read pending deletes, serving unmasked cache", "error", err)
		pendingDeletes = nil
	}

	visible := records[:0]
	for _, rec := range records {
		if _, deleted := pendingDeletes[rec.ID]; !deleted {
			visible = append(visible, rec)
		}
	}

	sort.Slice(visible, func(i, j int) bool {
		return visible[i].Date.After(visible[j].Date)
	})

	if limit > 0 && len(visible) > limit {
		visible = visible[:limit]
	}

	return visible, true, nil
}

// buffer writes the optimistic copy to the cache and appends the intent to
// the queue. Both writes must succeed: this is the last line of defense.
func (g *GatewayImpl) buffer(ctx context.Context, rec *record.Record, op syncqueue.Op, payload any) error {
	if err := g.records.Put(ctx, rec); err != nil {
		return err
	}

	entry, err := syncqueue.NewEntry(rec.ID, op, payload)
	if err != nil {
		return err
	}

	return g.queue.Enqueue(ctx, entry)
}

// cachePut refreshes the cache after a confirmed remote write. The remote
// row is already durable, so a cache failure is logged, not surfaced.
func (g *GatewayImpl) cachePut(ctx context.Context, rec *record.Record) {
	if err := g.records.Put(ctx, rec); err != nil {
		g.logger.Warn("Failed to refresh local cache after remote write",
			"record_id", rec.ID,
			"error", err,
		)
	}
}
