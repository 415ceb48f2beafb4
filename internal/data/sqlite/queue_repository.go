package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourmoney-sync-agent/internal/domain/syncqueue"
)

// QueueRepository implements syncqueue.Repository on SQLite
type QueueRepository struct {
	db     DBTX
	logger *slog.Logger
}

// NewQueueRepository creates a new SQLite sync queue repository
func NewQueueRepository(logger *slog.Logger, db DBTX) syncqueue.Repository {
	return &QueueRepository{
		db:     db,
		logger: logger,
	}
}

// Enqueue appends a new entry to the log. Unlike the record cache, a
// storage failure here is surfaced: losing a pending mutation is a
// correctness bug, not a soft failure.
func (r *QueueRepository) Enqueue(ctx context.Context, e *syncqueue.Entry) error {
	query := `
		INSERT INTO sync_queue (id, record_id, operation, payload, status, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	payload := ""
	if len(e.Payload) > 0 {
		payload = string(e.Payload)
	}

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.RecordID,
		string(e.Op),
		payload,
		string(e.Status),
		e.Attempts,
		formatTime(e.CreatedAt),
	)
	if err != nil {
		r.logger.Error("Failed to enqueue sync entry",
			"entry_id", e.ID,
			"record_id", e.RecordID,
			"operation", string(e.Op),
			"error", err,
		)
		return fmt.Errorf("failed to enqueue sync entry: %w", err)
	}

	return nil
}

// ListPending retrieves pending entries in FIFO order, capped at limit.
// seq is allocated by AUTOINCREMENT and never reused, so it is the true
// insertion order even after the highest rows have been drained and deleted.
func (r *QueueRepository) ListPending(ctx context.Context, limit int) ([]*syncqueue.Entry, error) {
	query := `
		SELECT id, record_id, operation, payload, status, attempts, created_at, last_attempt_at
		FROM sync_queue
		WHERE status = ?
		ORDER BY seq ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, string(syncqueue.StatusPending), limit)
	if err != nil {
		r.logger.Error("Failed to list pending sync entries", "error", err)
		return nil, fmt.Errorf("failed to list pending sync entries: %w", err)
	}
	defer rows.Close()

	var entries []*syncqueue.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			r.logger.Error("Failed to scan sync queue entry", "error", err)
			return nil, fmt.Errorf("failed to scan sync queue entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating sync queue entries", "error", err)
		return nil, fmt.Errorf("error iterating sync queue entries: %w", err)
	}

	return entries, nil
}

// Remove deletes one entry after successful replay. Removing an entry that
// is already gone is a no-op so replay retries stay safe.
func (r *QueueRepository) Remove(ctx context.Context, entryID string) error {
	query := `
		DELETE FROM sync_queue
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, entryID); err != nil {
		r.logger.Error("Failed to remove sync queue entry",
			"entry_id", entryID,
			"error", err,
		)
		return fmt.Errorf("failed to remove sync queue entry: %w", err)
	}

	return nil
}

// ClearForRecord deletes every entry referencing the record id.
func (r *QueueRepository) ClearForRecord(ctx context.Context, recordID string) error {
	query := `
		DELETE FROM sync_queue
		WHERE record_id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, recordID); err != nil {
		r.logger.Error("Failed to clear sync queue entries for record",
			"record_id", recordID,
			"error", err,
		)
		return fmt.Errorf("failed to clear sync queue entries for record %s: %w", recordID, err)
	}

	return nil
}

// HasPendingCreate reports whether a pending create exists for the record.
func (r *QueueRepository) HasPendingCreate(ctx context.Context, recordID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM sync_queue
			WHERE record_id = ? AND operation = ? AND status = ?
		)
	`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, recordID, string(syncqueue.OpCreate), string(syncqueue.StatusPending)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending create for record %s: %w", recordID, err)
	}

	return exists, nil
}

// PendingDeleteIDs returns the set of record ids with a pending delete.
func (r *QueueRepository) PendingDeleteIDs(ctx context.Context) (map[string]struct{}, error) {
	query := `
		SELECT DISTINCT record_id
		FROM sync_queue
		WHERE operation = ? AND status = ?
	`

	rows, err := r.db.QueryContext(ctx, query, string(syncqueue.OpDelete), string(syncqueue.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending deletes: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan pending delete record id: %w", err)
		}
		ids[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending deletes: %w", err)
	}

	return ids, nil
}

// DeadRecordIDs returns the set of record ids that have at least one dead
// entry. Later entries for these records must not replay ahead of the
// mutation that died, so the reconciler holds them.
func (r *QueueRepository) DeadRecordIDs(ctx context.Context) (map[string]struct{}, error) {
	query := `
		SELECT DISTINCT record_id
		FROM sync_queue
		WHERE status = ?
	`

	rows, err := r.db.QueryContext(ctx, query, string(syncqueue.StatusDead))
	if err != nil {
		return nil, fmt.Errorf("failed to list dead sync records: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan dead record id: %w", err)
		}
		ids[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dead sync records: %w", err)
	}

	return ids, nil
}

// IncrementAttempts bumps the retry counter and last attempt time.
// Returns ErrEntryNotFound if the entry doesn't exist.
func (r *QueueRepository) IncrementAttempts(ctx context.Context, entryID string) error {
	query := `
		UPDATE sync_queue
		SET attempts = attempts + 1, last_attempt_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, formatTime(time.Now()), entryID)
	if err != nil {
		r.logger.Error("Failed to increment sync entry attempts",
			"entry_id", entryID,
			"error", err,
		)
		return fmt.Errorf("failed to increment sync entry attempts: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return syncqueue.ErrEntryNotFound{ID: entryID}
	}

	return nil
}

// MarkDead parks an entry that exhausted its retry budget.
// Returns ErrEntryNotFound if the entry doesn't exist.
func (r *QueueRepository) MarkDead(ctx context.Context, entryID string) error {
	query := `
		UPDATE sync_queue
		SET status = ?, last_attempt_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, string(syncqueue.StatusDead), formatTime(time.Now()), entryID)
	if err != nil {
		r.logger.Error("Failed to mark sync entry dead",
			"entry_id", entryID,
			"error", err,
		)
		return fmt.Errorf("failed to mark sync entry dead: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return syncqueue.ErrEntryNotFound{ID: entryID}
	}

	return nil
}

// CountByStatus returns the number of entries in the given status.
func (r *QueueRepository) CountByStatus(ctx context.Context, status syncqueue.Status) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM sync_queue
		WHERE status = ?
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, string(status)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sync queue entries: %w", err)
	}

	return count, nil
}

func scanEntry(rows *sql.Rows) (*syncqueue.Entry, error) {
	var (
		entry       syncqueue.Entry
		op, status  string
		payload     string
		created     string
		lastAttempt sql.NullString
	)

	if err := rows.Scan(&entry.ID, &entry.RecordID, &op, &payload, &status, &entry.Attempts, &created, &lastAttempt); err != nil {
		return nil, err
	}

	entry.Op = syncqueue.Op(op)
	entry.Status = syncqueue.Status(status)
	if payload != "" {
		entry.Payload = []byte(payload)
	}

	createdAt, err := parseTime(created)
	if err != nil {
		return nil, fmt.Errorf("invalid stored created_at %q: %w", created, err)
	}
	entry.CreatedAt = createdAt

	if lastAttempt.Valid {
		t, err := parseTime(lastAttempt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored last_attempt_at %q: %w", lastAttempt.String, err)
		}
		entry.LastAttemptAt = &t
	}

	return &entry, nil
}
