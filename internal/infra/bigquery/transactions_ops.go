package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/dvloznov/dompet/internal/ledger"
	"google.golang.org/api/iterator"
)

// TransactionRepository stores ledger transactions. It implements ledger.Store.
type TransactionRepository struct {
	client *Client
}

// NewTransactionRepository creates a repository on a shared client.
func NewTransactionRepository(client *Client) *TransactionRepository {
	return &TransactionRepository{client: client}
}

// CreateTransaction streams one transaction row into the transactions table.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	inserter := r.client.table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, transactionToRow(tx)); err != nil {
		return fmt.Errorf("CreateTransaction: inserting row: %w", err)
	}
	return nil
}

// ListTransactions returns the user's transactions dated between from and to, inclusive.
func (r *TransactionRepository) ListTransactions(ctx context.Context, userID string, from, to civil.Date) ([]*domain.Transaction, error) {
	q := r.client.bq.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			user_id,
			transaction_date,
			amount,
			direction,
			description,
			category_name,
			created_ts
		FROM %s
		WHERE user_id = @user_id
		  AND transaction_date >= @start_date
		  AND transaction_date <= @end_date
		ORDER BY transaction_date DESC, created_ts DESC
	`, r.client.tableName(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_date", Value: from},
		{Name: "end_date", Value: to},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query read: %w", err)
	}

	var txs []*domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iter next: %w", err)
		}
		tx, err := rowToTransaction(&row)
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: %w", err)
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

var _ ledger.Store = (*TransactionRepository)(nil)
