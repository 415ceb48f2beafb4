package syncqueue

import "context"

// Repository manages durable sync queue persistence. Losing a pending entry
// is a correctness bug, so Enqueue surfaces storage failures instead of
// degrading the way the record cache does.
type Repository interface {
	// Enqueue appends the entry to the log.
	Enqueue(ctx context.Context, e *Entry) error

	// ListPending returns pending entries in ascending creation order,
	// capped at limit. Stable: two calls without intervening mutation
	// return the same sequence. Entries for the same record id always
	// appear in the order they were enqueued.
	ListPending(ctx context.Context, limit int) ([]*Entry, error)

	// Remove deletes one entry after successful replay. Removing an
	// already-removed entry is a no-op, which keeps retry paths safe.
	Remove(ctx context.Context, entryID string) error

	// ClearForRecord deletes every entry referencing the record id,
	// pending or dead. Used when a delete supersedes earlier mutations.
	ClearForRecord(ctx context.Context, recordID string) error

	// HasPendingCreate reports whether a pending create entry exists for
	// the record id, i.e. the record has never reached the remote store.
	HasPendingCreate(ctx context.Context, recordID string) (bool, error)

	// PendingDeleteIDs returns the record ids with a pending delete entry.
	// The gateway masks these out of offline list results.
	PendingDeleteIDs(ctx context.Context) (map[string]struct{}, error)

	// DeadRecordIDs returns the record ids with at least one dead entry.
	// The reconciler holds later entries for these records so a record's
	// mutations never replay out of order.
	DeadRecordIDs(ctx context.Context) (map[string]struct{}, error)

	// IncrementAttempts bumps the retry counter and last attempt time.
	IncrementAttempts(ctx context.Context, entryID string) error

	// MarkDead parks an entry that exhausted its retry budget. Dead
	// entries are excluded from ListPending but kept for inspection.
	MarkDead(ctx context.Context, entryID string) error

	// CountByStatus returns the number of entries in the given status.
	CountByStatus(ctx context.Context, status Status) (int, error)
}

// ErrEntryNotFound indicates a missing sync queue entry
type ErrEntryNotFound struct {
	ID string
}

func (e ErrEntryNotFound) Error() string {
	return "sync queue entry not found: " + e.ID
}
