// Package record defines the financial record entity and the contract of the
// on-device store that caches confirmed records and stages offline mutations.
package record

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyName     = errors.New("record name must not be empty")
	ErrEmptyCategory = errors.New("record category must not be empty")
	ErrEmptyUserID   = errors.New("record user id must not be empty")
)

// Record represents a single financial transaction (income or expense).
// The ID is generated client-side so creation never waits on the remote
// store, and it is the join key between the local cache, the sync queue
// and the remote row.
type Record struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"` // negative = expense, positive = income
	Date      time.Time       `json:"date"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// New builds a record with a fresh client-side UUID and both timestamps set
// to now. The occurrence date is normalized to noon UTC so that timezone
// shifts cannot move a transaction to an adjacent day.
func New(userID, name, category string, amount decimal.Decimal, date time.Time) (*Record, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if name == "" {
		return nil, ErrEmptyName
	}
	if category == "" {
		return nil, ErrEmptyCategory
	}

	now := time.Now().UTC()
	return &Record{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Category:  category,
		Amount:    amount,
		Date:      NormalizeDate(date),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NormalizeDate pins the occurrence date to 12:00 UTC of its calendar day.
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 12, 0, 0, 0, time.UTC)
}

// Updates carries the changed fields of an update request. Nil fields are
// left untouched; this is also the payload shape of an update queue entry.
type Updates struct {
	Name     *string          `json:"name,omitempty"`
	Category *string          `json:"category,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Date     *time.Time       `json:"date,omitempty"`
}

// IsEmpty reports whether no field is set.
func (u *Updates) IsEmpty() bool {
	return u.Name == nil && u.Category == nil && u.Amount == nil && u.Date == nil
}

// Apply merges the set fields into the record and bumps UpdatedAt.
func (u *Updates) Apply(r *Record) {
	if u.Name != nil {
		r.Name = *u.Name
	}
	if u.Category != nil {
		r.Category = *u.Category
	}
	if u.Amount != nil {
		r.Amount = *u.Amount
	}
	if u.Date != nil {
		r.Date = NormalizeDate(*u.Date)
	}
	r.UpdatedAt = time.Now().UTC()
}
