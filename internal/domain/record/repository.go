package record

import "context"

// Repository is the durable on-device record store. It serves two roles at
// once: read cache of remotely confirmed records and staging area for
// records created or updated while offline. The two are told apart by
// whether a pending sync queue entry references the record id.
type Repository interface {
	// Put inserts or fully overwrites the record at its id. Idempotent;
	// overwriting is not an error.
	Put(ctx context.Context, r *Record) error

	// GetAll returns every record owned by userID, order unspecified.
	// Read failures degrade to an empty result, never an error.
	GetAll(ctx context.Context, userID string) []*Record

	// GetByID returns the record or ErrRecordNotFound.
	GetByID(ctx context.Context, id string) (*Record, error)

	// Remove deletes the entry; absent ids are a no-op.
	Remove(ctx context.Context, id string) error
}

// ErrRecordNotFound indicates a record id absent from the local store
type ErrRecordNotFound struct {
	ID string
}

func (e ErrRecordNotFound) Error() string {
	return "record not found in local store: " + e.ID
}
