// Package remote wraps CRUD access to the remote transactions store. The
// gateway and reconciler consume it purely through the Store interface;
// every failure is an error value, never a panic crossing package lines.
package remote

import (
	"context"

	"github.com/yourmoney-sync-agent/internal/domain/record"
)

// Store is the remote CRUD contract. Implementations must return a record
// reflecting any server-side normalization (e.g. server timestamps) from
// the mutating calls, since the gateway refreshes the local cache with it.
type Store interface {
	// CreateRecord inserts the record under its client-generated id and
	// returns the stored row.
	CreateRecord(ctx context.Context, rec *record.Record) (*record.Record, error)

	// UpdateRecord applies the changed fields and returns the stored row.
	// Returns ErrRecordNotFound if no row has the id.
	UpdateRecord(ctx context.Context, id string, updates *record.Updates) (*record.Record, error)

	// DeleteRecord removes the row. Deleting an absent row succeeds, which
	// makes delete replay idempotent.
	DeleteRecord(ctx context.Context, id string) error

	// QueryRecords returns the user's most recent records, newest first.
	QueryRecords(ctx context.Context, userID string, limit int) ([]*record.Record, error)

	// RecordExists reports whether a row with the id exists. The
	// reconciler uses this as the create idempotency guard.
	RecordExists(ctx context.Context, id string) (bool, error)
}

// ErrRecordNotFound indicates the remote store has no row for the id
type ErrRecordNotFound struct {
	ID string
}

func (e ErrRecordNotFound) Error() string {
	return "remote record not found: " + e.ID
}
