// Package syncqueue defines the durable log of pending mutation intents and
// its persistence contract. Entries are appended by the mutation gateway
// whenever a change cannot reach the remote store and are drained in FIFO
// order by the reconciler.
package syncqueue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Op classifies the mutation an entry replays against the remote store
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Status tracks an entry's replay lifecycle. Successful entries are removed
// rather than marked, so the only stored states are pending and dead.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusDead    Status = "DEAD"
)

// Entry is a durable intent to apply one mutation to the remote store.
// The payload is self-contained: the full record for a create, the changed
// fields for an update, empty for a delete. The payload, not the local
// cache, is authoritative at replay time.
type Entry struct {
	ID            string          `json:"id"`
	RecordID      string          `json:"record_id"`
	Op            Op              `json:"operation"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Status        Status          `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

// NewEntry builds a pending entry with a fresh identifier. The payload is
// marshaled here so enqueueing callers hand over domain values, not bytes.
func NewEntry(recordID string, op Op, payload any) (*Entry, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	return &Entry{
		ID:        uuid.New().String(),
		RecordID:  recordID,
		Op:        op,
		Payload:   raw,
		Status:    StatusPending,
		Attempts:  0,
		CreatedAt: time.Now().UTC(),
	}, nil
}
