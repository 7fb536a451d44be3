package bigquery

import (
	"time"

	"github.com/dvloznov/dompet/internal/domain"
)

// CategoryRow holds one user's category lists. There is one row per user.
type CategoryRow struct {
	UserID string `bigquery:"user_id"` // REQUIRED

	ExpenseCategories []string `bigquery:"expense_categories"` // REPEATED STRING
	IncomeCategories  []string `bigquery:"income_categories"`  // REPEATED STRING

	UpdatedTS time.Time `bigquery:"updated_ts"` // REQUIRED
}

func (r *CategoryRow) toDomain() domain.UserCategories {
	return domain.UserCategories{
		Expense: append([]string(nil), r.ExpenseCategories...),
		Income:  append([]string(nil), r.IncomeCategories...),
	}
}
