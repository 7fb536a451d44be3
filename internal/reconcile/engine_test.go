package reconcile

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/dompet/internal/amount"
	"github.com/dvloznov/dompet/internal/categories"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow = time.Date(2026, 5, 20, 23, 30, 0, 0, time.UTC)
	today    = civil.Date{Year: 2026, Month: time.May, Day: 20}
)

func newTestEngine() *Engine {
	return NewEngine(WithClock(func() time.Time { return fixedNow }))
}

func testRegistry() *categories.Registry {
	return categories.NewRegistry(domain.UserCategories{
		Expense: []string{"Food & Drinks", "Transport", categories.Fallback},
		Income:  []string{"Salary", "Freelance"},
	})
}

func TestReconcile_HappyPath(t *testing.T) {
	res := domain.ExtractionResult{
		Amount:      amount.Number(decimal.NewFromInt(54000)),
		Category:    "Food & Drinks",
		Date:        "2026-05-18",
		Description: "Warung Makan",
		Type:        domain.Expense,
	}

	draft, err := newTestEngine().Reconcile(testRegistry(), res, domain.Expense)
	require.NoError(t, err)

	assert.True(t, draft.Amount.Equal(decimal.NewFromInt(54000)))
	assert.Equal(t, "Food & Drinks", draft.Category)
	assert.Equal(t, civil.Date{Year: 2026, Month: time.May, Day: 18}, draft.Date)
	assert.Equal(t, "Warung Makan", draft.Description)
	assert.Equal(t, domain.Expense, draft.Type)
}

func TestReconcile_Rules(t *testing.T) {
	tests := []struct {
		name     string
		res      domain.ExtractionResult
		expected domain.TransactionType
		check    func(t *testing.T, d *domain.Draft)
	}{
		{
			name:     "unknown category falls back",
			res:      domain.ExtractionResult{Amount: amount.Text("10.000"), Category: "Groceries", Date: "2026-05-01", Description: "Mart", Type: domain.Expense},
			expected: domain.Expense,
			check: func(t *testing.T, d *domain.Draft) {
				assert.Equal(t, categories.Fallback, d.Category)
				assert.True(t, d.Amount.Equal(decimal.NewFromInt(10000)))
			},
		},
		{
			name:     "category from the other list falls back",
			res:      domain.ExtractionResult{Amount: amount.Text("5"), Category: "Transport", Date: "2026-05-01", Description: "x", Type: domain.Income},
			expected: domain.Income,
			check: func(t *testing.T, d *domain.Draft) {
				assert.Equal(t, categories.Fallback, d.Category)
			},
		},
		{
			name: "unparseable date becomes today",
			res:  domain.ExtractionResult{Amount: amount.Text("5"), Category: "Transport", Date: "18/05/2026", Description: "x", Type: domain.Expense},
			check: func(t *testing.T, d *domain.Draft) {
				assert.Equal(t, today, d.Date)
			},
		},
		{
			name: "impossible date becomes today",
			res:  domain.ExtractionResult{Amount: amount.Text("5"), Category: "Transport", Date: "2026-02-30", Description: "x", Type: domain.Expense},
			check: func(t *testing.T, d *domain.Draft) {
				assert.Equal(t, today, d.Date)
			},
		},
		{
			name: "empty date becomes today",
			res:  domain.ExtractionResult{Amount: amount.Text("5"), Category: "Transport", Description: "x", Type: domain.Expense},
			check: func(t *testing.T, d *domain.Draft) {
				assert.Equal(t, today, d.Date)
			},
		},
		{
			name: "timestamp date keeps its day",
			res:  domain.ExtractionResult{Amount: amount.Text("5"), Category: "Transport", Date: "2026-05-02T10:00:00Z", Description: "x", Type: domain.Expense},
			check: func(t *testing.T, d *domain.Draft) {
				assert.Equal(t, civil.Date{Year: 2026, Month: time.May, Day: 2}, d.Date)
			},
		},
		{
			name: "blank description gets placeholder",
			res:  domain.ExtractionResult{Amount: amount.Text("5"), Category: "Transport", Date: "2026-05-01", Description: "   ", Type: domain.Expense},
			check: func(t *testing.T, d *domain.Draft) {
				assert.Equal(t, DefaultDescription, d.Description)
			},
		},
		{
			name: "description passes verbatim",
			res:  domain.ExtractionResult{Amount: amount.Text("5"), Category: "Transport", Date: "2026-05-01", Description: " Gojek  ride ", Type: domain.Expense},
			check: func(t *testing.T, d *domain.Draft) {
				assert.Equal(t, " Gojek  ride ", d.Description)
			},
		},
		{
			name:     "no expectation accepts income",
			res:      domain.ExtractionResult{Amount: amount.Text("Rp 7.500.000"), Category: "Salary", Date: "2026-05-01", Description: "Payroll", Type: domain.Income},
			expected: "",
			check: func(t *testing.T, d *domain.Draft) {
				assert.Equal(t, domain.Income, d.Type)
				assert.Equal(t, "Salary", d.Category)
				assert.True(t, d.Amount.Equal(decimal.NewFromInt(7500000)))
			},
		},
		{
			name:     "missing type follows the form",
			res:      domain.ExtractionResult{Amount: amount.Text("5"), Category: "Salary", Date: "2026-05-01", Description: "x"},
			expected: domain.Income,
			check: func(t *testing.T, d *domain.Draft) {
				assert.Equal(t, domain.Income, d.Type)
				assert.Equal(t, "Salary", d.Category)
			},
		},
		{
			name: "missing type without form defaults to expense",
			res:  domain.ExtractionResult{Amount: amount.Text("5"), Category: "Salary", Date: "2026-05-01", Description: "x"},
			check: func(t *testing.T, d *domain.Draft) {
				assert.Equal(t, domain.Expense, d.Type)
				assert.Equal(t, categories.Fallback, d.Category)
			},
		},
		{
			name: "decimal comma amount",
			res:  domain.ExtractionResult{Amount: amount.Text("12,50"), Category: "Transport", Date: "2026-05-01", Description: "x", Type: domain.Expense},
			check: func(t *testing.T, d *domain.Draft) {
				assert.True(t, d.Amount.Equal(decimal.RequireFromString("12.5")))
			},
		},
		{
			name: "grouped thousands without decimals",
			res:  domain.ExtractionResult{Amount: amount.Text("1.234.567"), Category: "Transport", Date: "2026-05-01", Description: "x", Type: domain.Expense},
			check: func(t *testing.T, d *domain.Draft) {
				assert.True(t, d.Amount.Equal(decimal.NewFromInt(1234567)))
			},
		},
		{
			name: "ungrouped decimal comma keeps cents",
			res:  domain.ExtractionResult{Amount: amount.Text("1234,56"), Category: "Transport", Date: "2026-05-01", Description: "x", Type: domain.Expense},
			check: func(t *testing.T, d *domain.Draft) {
				assert.True(t, d.Amount.Equal(decimal.RequireFromString("1234.56")))
				assert.Equal(t, "0.56", d.Amount.Sub(d.Amount.Truncate(0)).String())
			},
		},
		{
			name:     "undated coffee receipt with unknown category",
			res:      domain.ExtractionResult{Amount: amount.Text("50.000"), Category: "Kopi", Date: "", Description: "", Type: domain.Expense},
			expected: domain.Expense,
			check: func(t *testing.T, d *domain.Draft) {
				assert.Equal(t, domain.Draft{
					Date:        today,
					Description: DefaultDescription,
					Category:    categories.Fallback,
					Amount:      d.Amount,
					Type:        domain.Expense,
				}, *d)
				assert.True(t, d.Amount.Equal(decimal.NewFromInt(50000)))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := newTestEngine().Reconcile(testRegistry(), tt.res, tt.expected)
			require.NoError(t, err)
			tt.check(t, draft)
		})
	}
}

func TestReconcile_TypeMismatch(t *testing.T) {
	res := domain.ExtractionResult{Amount: amount.Text("-"), Category: "Salary", Date: "garbage", Type: domain.Income}

	draft, err := newTestEngine().Reconcile(testRegistry(), res, domain.Expense)
	assert.Nil(t, draft)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	assert.False(t, errors.Is(err, ErrInvalidAmount), "type check must run before amount check")

	var mismatch *TypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, domain.Income, mismatch.Scanned)
	assert.Equal(t, domain.Expense, mismatch.Expected)
}

func TestReconcile_InvalidAmount(t *testing.T) {
	tests := []struct {
		name string
		raw  amount.Raw
	}{
		{name: "zero number", raw: amount.Number(decimal.Zero)},
		{name: "negative number", raw: amount.Number(decimal.NewFromInt(-5))},
		{name: "negative text", raw: amount.Text("-5.000")},
		{name: "no digits", raw: amount.Text("free")},
		{name: "empty", raw: amount.Raw{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := domain.ExtractionResult{Amount: tt.raw, Category: "Unknown", Date: "bad", Description: "", Type: domain.Expense}

			draft, err := newTestEngine().Reconcile(testRegistry(), res, domain.Expense)
			assert.Nil(t, draft)
			require.True(t, errors.Is(err, ErrInvalidAmount), "got %v", err)

			var invalid *InvalidAmountError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.raw.String(), invalid.Raw)
			assert.Equal(t, categories.Fallback, invalid.Partial.Category)
			assert.Equal(t, today, invalid.Partial.Date)
			assert.Equal(t, DefaultDescription, invalid.Partial.Description)
			assert.True(t, invalid.Partial.Amount.IsZero())
		})
	}
}

func TestReconcile_DraftInvariants(t *testing.T) {
	reg := testRegistry()
	engine := newTestEngine()
	labels := []string{"Food & Drinks", "Salary", "food & drinks", "", categories.Fallback, "Bills"}
	amounts := []amount.Raw{amount.Text("1"), amount.Text("Rp 1.000,50"), amount.Number(decimal.RequireFromString("0.01"))}

	for _, typ := range domain.Types {
		for _, label := range labels {
			for _, amt := range amounts {
				res := domain.ExtractionResult{Amount: amt, Category: label, Date: "", Description: "", Type: typ}
				draft, err := engine.Reconcile(reg, res, "")
				require.NoError(t, err)

				assert.True(t, draft.Amount.IsPositive())
				assert.NotEmpty(t, draft.Description)
				assert.True(t, draft.Date.IsValid())
				assert.Contains(t, reg.Options(typ), draft.Category)
			}
		}
	}
}

func TestEngineOptions(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	engine := NewEngine(
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(jakarta),
		WithPlaceholder("Struk belanja"),
	)

	// 23:30 UTC is already the next day in UTC+7.
	assert.Equal(t, civil.Date{Year: 2026, Month: time.May, Day: 21}, engine.Today())

	draft, err := engine.Reconcile(testRegistry(), domain.ExtractionResult{Amount: amount.Text("1"), Type: domain.Expense}, "")
	require.NoError(t, err)
	assert.Equal(t, "Struk belanja", draft.Description)
}
