package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/dompet/internal/categories"
	"github.com/dvloznov/dompet/internal/domain"
	"google.golang.org/api/iterator"
)

// CategoryRepository stores per-user category lists. It implements categories.Store.
type CategoryRepository struct {
	client *Client
	now    func() time.Time
}

// NewCategoryRepository creates a repository on a shared client.
func NewCategoryRepository(client *Client) *CategoryRepository {
	return &CategoryRepository{client: client, now: time.Now}
}

// GetCategories returns the user's category lists. found is false when the user has none yet.
func (r *CategoryRepository) GetCategories(ctx context.Context, userID string) (domain.UserCategories, bool, error) {
	q := r.client.bq.Query(fmt.Sprintf(`
		SELECT
			user_id,
			expense_categories,
			income_categories,
			updated_ts
		FROM %s
		WHERE user_id = @user_id
		ORDER BY updated_ts DESC
		LIMIT 1
	`, r.client.tableName(categoriesTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return domain.UserCategories{}, false, fmt.Errorf("GetCategories: query read: %w", err)
	}

	var row CategoryRow
	err = it.Next(&row)
	if err == iterator.Done {
		return domain.UserCategories{}, false, nil
	}
	if err != nil {
		return domain.UserCategories{}, false, fmt.Errorf("GetCategories: iter next: %w", err)
	}

	return row.toDomain(), true, nil
}

// SaveCategories replaces both of the user's category lists.
// DML MERGE is used instead of streaming inserts so the row can be updated right away.
func (r *CategoryRepository) SaveCategories(ctx context.Context, userID string, cats domain.UserCategories) error {
	q := r.client.bq.Query(fmt.Sprintf(`
		MERGE %s T
		USING (SELECT @user_id AS user_id) S
		ON T.user_id = S.user_id
		WHEN MATCHED THEN
			UPDATE SET
				expense_categories = @expense_categories,
				income_categories = @income_categories,
				updated_ts = @updated_ts
		WHEN NOT MATCHED THEN
			INSERT (user_id, expense_categories, income_categories, updated_ts)
			VALUES (@user_id, @expense_categories, @income_categories, @updated_ts)
	`, r.client.tableName(categoriesTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "expense_categories", Value: nonNil(cats.Expense)},
		{Name: "income_categories", Value: nonNil(cats.Income)},
		{Name: "updated_ts", Value: r.now().UTC()},
	}

	return r.client.runDML(ctx, "SaveCategories", q)
}

// nonNil returns an empty slice for nil so the parameter type can be inferred as ARRAY<STRING>.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ categories.Store = (*CategoryRepository)(nil)
