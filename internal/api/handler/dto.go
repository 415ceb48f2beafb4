package handler

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourmoney-sync-agent/internal/domain/record"
)

// CreateTransactionRequest represents a request to record a new transaction.
// Amount accepts a JSON number or string; negative values are expenses.
type CreateTransactionRequest struct {
	UserID   string          `json:"user_id" binding:"required,uuid"`
	Name     string          `json:"name" binding:"required"`
	Category string          `json:"category" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Date     string          `json:"date" binding:"required"`
}

// UpdateTransactionRequest carries the fields to change; absent fields are
// left untouched. At least one field must be present.
type UpdateTransactionRequest struct {
	Name     *string          `json:"name"`
	Category *string          `json:"category"`
	Amount   *decimal.Decimal `json:"amount"`
	Date     *string          `json:"date"`
}

// TransactionResponse represents a transaction in API responses. Buffered
// reports whether the mutation is waiting in the sync queue rather than
// confirmed by the remote store.
type TransactionResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Amount    string `json:"amount"`
	Date      string `json:"date"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	Buffered  bool   `json:"buffered"`
}

// TransactionListResponse represents a list of transactions. FromCache is
// true when the remote store was unreachable and the local cache answered.
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	FromCache    bool                  `json:"from_cache"`
}

// DeleteTransactionResponse confirms a delete.
type DeleteTransactionResponse struct {
	ID       string `json:"id"`
	Buffered bool   `json:"buffered"`
}

// SyncStatusResponse reports sync queue depth and connectivity.
type SyncStatusResponse struct {
	Pending   int  `json:"pending"`
	Dead      int  `json:"dead"`
	Reachable bool `json:"reachable"`
}

// ListParams represents query parameters for list endpoints.
type ListParams struct {
	Limit int `form:"limit,default=30" binding:"min=1,max=200"`
}

// mapRecordToResponse maps a domain record to a transaction response DTO
func mapRecordToResponse(rec *record.Record, buffered bool) TransactionResponse {
	return TransactionResponse{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Name:      rec.Name,
		Category:  rec.Category,
		Amount:    rec.Amount.String(),
		Date:      rec.Date.Format(time.RFC3339),
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
		Buffered:  buffered,
	}
}

// parseDate accepts either a full RFC 3339 timestamp or a bare calendar day.
func parseDate(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
