package handlers

import (
	"errors"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/dompet/internal/api/middleware"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/dvloznov/dompet/internal/ledger"
	"github.com/dvloznov/dompet/internal/logger"
)

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	ledger *ledger.Service
	today  func() civil.Date
}

// NewTransactionsHandler creates a new transactions handler. today supplies the
// default date range.
func NewTransactionsHandler(ledger *ledger.Service, today func() civil.Date) *TransactionsHandler {
	return &TransactionsHandler{ledger: ledger, today: today}
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.NewTransaction
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.ledger.Submit(ctx, middleware.UserID(ctx), req)
	if err != nil {
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{
				"error": verr.Message,
				"field": verr.Field,
			})
			return
		}
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to record transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to record transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, ok := dateRange(r, h.today())
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date or end_date format")
		return
	}

	transactions, err := h.ledger.List(ctx, middleware.UserID(ctx), from, to)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidTransaction) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	// Return array directly for frontend compatibility
	if transactions == nil {
		transactions = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// Summary handles GET /api/summary
func (h *TransactionsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, ok := dateRange(r, h.today())
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date or end_date format")
		return
	}

	sum, _, err := h.ledger.Summarize(ctx, middleware.UserID(ctx), from, to)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidTransaction) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to summarize transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to summarize transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, sum)
}
