package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourmoney-sync-agent/internal/domain/record"
)

// Gateway is the single entry point for mutations from the UI layer. Every
// operation returns immediately with a usable result whether or not the
// remote store is reachable; being offline is a handled branch, never an
// error. Only a failure of the on-device storage itself is surfaced.
type Gateway interface {
	// CreateTransaction builds a record with a client-generated id and
	// persists it remotely or buffers it. The returned bool reports
	// whether the mutation was buffered for later sync.
	CreateTransaction(ctx context.Context, userID, name, category string, amount decimal.Decimal, date time.Time) (*record.Record, bool, error)

	// UpdateTransaction applies the changed fields remotely or merges
	// them into the cached copy and buffers the delta.
	UpdateTransaction(ctx context.Context, id string, updates *record.Updates) (*record.Record, bool, error)

	// DeleteTransaction removes the record remotely or buffers the
	// delete. A buffered delete supersedes earlier unsynced mutations of
	// the same record.
	DeleteTransaction(ctx context.Context, id string) (bool, error)

	// ListTransactions returns the user's records newest first, from the
	// remote store when possible, else from the local cache with
	// pending deletes masked out. The bool reports a cache-served result.
	ListTransactions(ctx context.Context, userID string, limit int) ([]*record.Record, bool, error)
}
