package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of money for a transaction.
type TransactionType string

const (
	// Income is money received.
	Income TransactionType = "income"
	// Expense is money spent.
	Expense TransactionType = "expense"
)

// Types lists every transaction type in display order.
var Types = []TransactionType{Expense, Income}

// Valid reports whether t is income or expense.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// ParseTransactionType parses "income" or "expense".
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !t.Valid() {
		return "", fmt.Errorf("ParseTransactionType: unknown transaction type %q", s)
	}
	return t, nil
}

// Transaction is a persisted ledger entry.
// ID, UserID and CreatedAt are assigned by the server on submission.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Date        civil.Date      `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NewTransaction holds the caller-supplied fields of a transaction about to be recorded.
type NewTransaction struct {
	Date        civil.Date      `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
}

// Draft is a reconciled, not yet persisted transaction used to pre-fill the entry form.
type Draft struct {
	Date        civil.Date      `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
}

// NewTransaction converts a reviewed draft into a submission.
func (d Draft) NewTransaction() NewTransaction {
	return NewTransaction{
		Date:        d.Date,
		Description: d.Description,
		Category:    d.Category,
		Amount:      d.Amount,
		Type:        d.Type,
	}
}
