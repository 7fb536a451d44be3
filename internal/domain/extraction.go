package domain

import (
	"time"

	"github.com/dvloznov/dompet/internal/amount"
	"github.com/shopspring/decimal"
)

// ExtractionResult is what the model read from a receipt, before reconciliation.
// Date is expected as YYYY-MM-DD but is not trusted; Amount may be a number or text.
type ExtractionResult struct {
	Amount      amount.Raw      `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
}

// Advice is a generated summary of a user's finances over a period.
type Advice struct {
	Summary     string          `json:"summary"`
	Insights    string          `json:"insights"`
	Income      decimal.Decimal `json:"income"`
	Expenses    decimal.Decimal `json:"expenses"`
	Model       string          `json:"model,omitempty"`
	GeneratedAt time.Time       `json:"generatedAt"`
}
