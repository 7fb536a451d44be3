package bigquery

import (
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/shopspring/decimal"
)

// numericScale is the number of decimal places of a BigQuery NUMERIC.
const numericScale = 9

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED, partition column

	Amount    *big.Rat `bigquery:"amount"`    // REQUIRED NUMERIC, always positive
	Direction string   `bigquery:"direction"` // REQUIRED: "income" or "expense"

	Description  string `bigquery:"description"`   // REQUIRED
	CategoryName string `bigquery:"category_name"` // REQUIRED

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

func transactionToRow(tx *domain.Transaction) *TransactionRow {
	return &TransactionRow{
		TransactionID:   tx.ID,
		UserID:          tx.UserID,
		TransactionDate: tx.Date,
		Amount:          tx.Amount.Rat(),
		Direction:       string(tx.Type),
		Description:     tx.Description,
		CategoryName:    tx.Category,
		CreatedTS:       tx.CreatedAt.UTC(),
	}
}

func rowToTransaction(r *TransactionRow) (*domain.Transaction, error) {
	typ, err := domain.ParseTransactionType(r.Direction)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", r.TransactionID, err)
	}

	amt := decimal.Zero
	if r.Amount != nil {
		amt, err = decimal.NewFromString(r.Amount.FloatString(numericScale))
		if err != nil {
			return nil, fmt.Errorf("transaction %s: amount: %w", r.TransactionID, err)
		}
	}

	return &domain.Transaction{
		ID:          r.TransactionID,
		UserID:      r.UserID,
		Date:        r.TransactionDate,
		Description: r.Description,
		Category:    r.CategoryName,
		Amount:      amt,
		Type:        typ,
		CreatedAt:   r.CreatedTS,
	}, nil
}
