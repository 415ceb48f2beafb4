package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yourmoney-sync-agent/internal/domain/record"
	"github.com/yourmoney-sync-agent/internal/gateway"
)

// TransactionHandler handles HTTP requests for transaction operations. Every
// mutation goes through the gateway, so a request succeeds whether or not
// the remote store is reachable; the response's buffered flag tells the UI
// which path was taken.
type TransactionHandler struct {
	gateway gateway.Gateway
	logger  *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, gw gateway.Gateway) *TransactionHandler {
	return &TransactionHandler{
		gateway: gw,
		logger:  logger,
	}
}

// Create records a new transaction with a client-generated id
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	date, ok := parseDate(req.Date)
	if !ok {
		h.logger.Error("Invalid transaction date", "date", req.Date)
		RespondBadRequest(c, "Invalid date: expected RFC 3339 or YYYY-MM-DD")
		return
	}

	rec, buffered, err := h.gateway.CreateTransaction(
		c.Request.Context(),
		req.UserID,
		req.Name,
		req.Category,
		req.Amount,
		date,
	)
	if err != nil {
		if isValidationError(err) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to create transaction", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapRecordToResponse(rec, buffered))
}

// Update applies a partial change to a transaction
func (h *TransactionHandler) Update(c *gin.Context) {
	idParam := c.Param("id")
	if _, err := uuid.Parse(idParam); err != nil {
		h.logger.Error("Invalid transaction ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updates := &record.Updates{
		Name:     req.Name,
		Category: req.Category,
		Amount:   req.Amount,
	}
	if req.Date != nil {
		date, ok := parseDate(*req.Date)
		if !ok {
			h.logger.Error("Invalid transaction date", "date", *req.Date)
			RespondBadRequest(c, "Invalid date: expected RFC 3339 or YYYY-MM-DD")
			return
		}
		updates.Date = &date
	}

	rec, buffered, err := h.gateway.UpdateTransaction(c.Request.Context(), idParam, updates)
	if err != nil {
		if errors.Is(err, gateway.ErrEmptyUpdate) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to update transaction", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapRecordToResponse(rec, buffered))
}

// Delete removes a transaction
func (h *TransactionHandler) Delete(c *gin.Context) {
	idParam := c.Param("id")
	if _, err := uuid.Parse(idParam); err != nil {
		h.logger.Error("Invalid transaction ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	buffered, err := h.gateway.DeleteTransaction(c.Request.Context(), idParam)
	if err != nil {
		h.logger.Error("Failed to delete transaction", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, DeleteTransactionResponse{ID: idParam, Buffered: buffered})
}

// GetByUserID retrieves a user's recent transactions, newest first
func (h *TransactionHandler) GetByUserID(c *gin.Context) {
	userIDParam := c.Param("id")
	if _, err := uuid.Parse(userIDParam); err != nil {
		h.logger.Error("Invalid user ID", "user_id", userIDParam, "error", err)
		RespondBadRequest(c, "Invalid user ID")
		return
	}

	var params ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid list parameters", "error", err)
		RespondBadRequest(c, "Invalid list parameters")
		return
	}

	records, fromCache, err := h.gateway.ListTransactions(c.Request.Context(), userIDParam, params.Limit)
	if err != nil {
		h.logger.Error("Failed to list transactions", "user_id", userIDParam, "error", err)
		RespondInternalError(c)
		return
	}

	response := TransactionListResponse{
		Transactions: make([]TransactionResponse, 0, len(records)),
		FromCache:    fromCache,
	}
	for _, rec := range records {
		response.Transactions = append(response.Transactions, mapRecordToResponse(rec, false))
	}

	RespondOK(c, response)
}

func isValidationError(err error) bool {
	return errors.Is(err, record.ErrEmptyName) ||
		errors.Is(err, record.ErrEmptyCategory) ||
		errors.Is(err, record.ErrEmptyUserID)
}
