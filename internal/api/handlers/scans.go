package handlers

import (
	"net/http"

	"github.com/dvloznov/dompet/internal/amount"
	"github.com/dvloznov/dompet/internal/api/middleware"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/dvloznov/dompet/internal/logger"
	"github.com/dvloznov/dompet/internal/scan"
)

// ScansHandler handles receipt scanning endpoints.
type ScansHandler struct {
	scans *scan.Service
}

// NewScansHandler creates a new scans handler.
func NewScansHandler(scans *scan.Service) *ScansHandler {
	return &ScansHandler{scans: scans}
}

// Scan handles POST /api/scans
func (h *ScansHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhotoDataURI string                 `json:"photoDataUri"`
		ExpectedType domain.TransactionType `json:"expectedType"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PhotoDataURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "photoDataUri is required")
		return
	}

	draft, err := h.scans.Scan(r.Context(), scan.Request{
		UserID:       middleware.UserID(r.Context()),
		PhotoDataURI: req.PhotoDataURI,
		ExpectedType: req.ExpectedType,
	})
	h.writeOutcome(w, r, scan.OutcomeOf(draft, err), err)
}

// Reconcile handles POST /api/reconcile. It reconciles an extraction result the client
// already holds, without calling the model again.
func (h *ScansHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Extraction   *domain.ExtractionResult `json:"extraction"`
		ExpectedType domain.TransactionType   `json:"expectedType"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Extraction == nil {
		middleware.WriteError(w, http.StatusBadRequest, "extraction is required")
		return
	}

	draft, err := h.scans.Reconcile(r.Context(), middleware.UserID(r.Context()), *req.Extraction, req.ExpectedType)
	h.writeOutcome(w, r, scan.OutcomeOf(draft, err), err)
}

func (h *ScansHandler) writeOutcome(w http.ResponseWriter, r *http.Request, out scan.Outcome, err error) {
	log := logger.FromContext(r.Context())

	switch out.Status {
	case scan.StatusAbandoned:
		// The client is gone; there is nobody to answer.
		log.Info().Msg("Scan abandoned by client")
		return
	case scan.StatusError:
		log.Error().Err(err).Msg("Scan failed")
	}

	middleware.WriteJSON(w, outcomeHTTPStatus(out.Status), out)
}

func outcomeHTTPStatus(s scan.Status) int {
	switch s {
	case scan.StatusDraft:
		return http.StatusOK
	case scan.StatusTypeMismatch, scan.StatusInvalidAmount:
		return http.StatusUnprocessableEntity
	case scan.StatusExtractionFailed:
		return http.StatusBadGateway
	case scan.StatusInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// AmountsHandler exposes the amount normalizer.
type AmountsHandler struct{}

// NewAmountsHandler creates a new amounts handler.
func NewAmountsHandler() *AmountsHandler {
	return &AmountsHandler{}
}

// Normalize handles GET /api/amounts/normalize?raw=...
func (h *AmountsHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("raw")
	d := amount.Normalize(amount.Text(raw))

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"raw":       raw,
		"amount":    d,
		"formatted": amount.Format(d),
	})
}
