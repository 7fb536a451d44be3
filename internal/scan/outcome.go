package scan

import (
	"errors"
	"fmt"

	"github.com/dvloznov/dompet/internal/amount"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/dvloznov/dompet/internal/extraction"
	"github.com/dvloznov/dompet/internal/reconcile"
)

// Status classifies how a scan ended.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusTypeMismatch     Status = "type_mismatch"
	StatusInvalidAmount    Status = "invalid_amount"
	StatusExtractionFailed Status = "extraction_failed"
	StatusAbandoned        Status = "abandoned"
	StatusInvalidRequest   Status = "invalid_request"
	StatusError            Status = "error"
)

// Outcome is the client-facing result of a scan.
type Outcome struct {
	Status Status `json:"status"`
	// Draft is the reconciled draft, or the partial draft for invalid amounts.
	Draft           *domain.Draft          `json:"draft,omitempty"`
	FormattedAmount string                 `json:"formattedAmount,omitempty"`
	ScannedType     domain.TransactionType `json:"scannedType,omitempty"`
	ExpectedType    domain.TransactionType `json:"expectedType,omitempty"`
	Message         string                 `json:"message,omitempty"`
}

// OutcomeOf classifies the result of Service.Scan or reconcile.Engine.Reconcile.
func OutcomeOf(draft *domain.Draft, err error) Outcome {
	var (
		mismatch *reconcile.TypeMismatchError
		invalid  *reconcile.InvalidAmountError
	)
	switch {
	case err == nil && draft != nil:
		return Outcome{
			Status:          StatusDraft,
			Draft:           draft,
			FormattedAmount: amount.Format(draft.Amount),
		}
	case errors.As(err, &mismatch):
		return Outcome{
			Status:       StatusTypeMismatch,
			ScannedType:  mismatch.Scanned,
			ExpectedType: mismatch.Expected,
			Message: fmt.Sprintf("This receipt looks like %s, but you are adding %s. Switch to the %s form to use it.",
				article(mismatch.Scanned), article(mismatch.Expected), mismatch.Scanned),
		}
	case errors.As(err, &invalid):
		partial := invalid.Partial
		return Outcome{
			Status:  StatusInvalidAmount,
			Draft:   &partial,
			Message: "The amount on the receipt could not be read. Please enter it manually.",
		}
	case errors.Is(err, extraction.ErrExtractionFailed):
		return Outcome{Status: StatusExtractionFailed, Message: extraction.Describe(err)}
	case errors.Is(err, ErrAbandoned):
		return Outcome{Status: StatusAbandoned}
	case errors.Is(err, ErrInvalidRequest):
		return Outcome{Status: StatusInvalidRequest, Message: err.Error()}
	default:
		return Outcome{Status: StatusError, Message: "Something went wrong while scanning. Please try again."}
	}
}

func article(t domain.TransactionType) string {
	if t == domain.Income {
		return "an income"
	}
	return "an expense"
}
