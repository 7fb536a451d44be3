// Package ledger records reviewed transactions and reads them back.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/dompet/internal/categories"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/dvloznov/dompet/internal/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidTransaction matches every *ValidationError.
var ErrInvalidTransaction = errors.New("invalid transaction")

// ValidationError reports the first field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidTransaction
}

// Store persists transactions.
type Store interface {
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	// ListTransactions returns the user's transactions with from <= date <= to.
	ListTransactions(ctx context.Context, userID string, from, to civil.Date) ([]*domain.Transaction, error)
}

// RegistrySource hands out category snapshots. *categories.Cache implements it.
type RegistrySource interface {
	Registry(ctx context.Context, userID string) (*categories.Registry, error)
}

// Service validates and records transactions.
type Service struct {
	store      Store
	registries RegistrySource
	now        func() time.Time
	newID      func() string
}

// NewService creates a ledger service.
func NewService(store Store, registries RegistrySource) *Service {
	return &Service{
		store:      store,
		registries: registries,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

// Submit validates in and persists it for userID. The ID, owner and creation time are assigned
// here and never taken from the caller. Storage errors are returned as-is for the caller to retry.
func (s *Service) Submit(ctx context.Context, userID string, in domain.NewTransaction) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("Submit: %w", &ValidationError{Field: "userId", Message: "is required"})
	}

	reg, err := s.registries.Registry(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("Submit: load categories: %w", err)
	}
	if err := Validate(reg, in); err != nil {
		return "", fmt.Errorf("Submit: %w", err)
	}

	tx := &domain.Transaction{
		ID:          s.newID(),
		UserID:      userID,
		Date:        in.Date,
		Description: in.Description,
		Category:    in.Category,
		Amount:      in.Amount,
		Type:        in.Type,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("Submit: create transaction: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("user_id", userID).
		Str("transaction_id", tx.ID).
		Str("type", string(tx.Type)).
		Msg("Transaction recorded")

	return tx.ID, nil
}

// Validate checks a submission against the user's categories.
func Validate(reg *categories.Registry, in domain.NewTransaction) error {
	switch {
	case !in.Type.Valid():
		return &ValidationError{Field: "type", Message: fmt.Sprintf("must be %q or %q", domain.Income, domain.Expense)}
	case !in.Amount.IsPositive():
		return &ValidationError{Field: "amount", Message: "must be greater than zero"}
	case strings.TrimSpace(in.Description) == "":
		return &ValidationError{Field: "description", Message: "is required"}
	case !in.Date.IsValid():
		return &ValidationError{Field: "date", Message: "is not a valid date"}
	case !reg.Allows(in.Type, in.Category):
		return &ValidationError{Field: "category", Message: fmt.Sprintf("%q is not a %s category", in.Category, in.Type)}
	}
	return nil
}

// List returns the user's transactions between from and to inclusive, newest first.
// Transactions on the same day are ordered by creation time, newest first.
func (s *Service) List(ctx context.Context, userID string, from, to civil.Date) ([]*domain.Transaction, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("List: %w", &ValidationError{Field: "end_date", Message: "is before start_date"})
	}
	txs, err := s.store.ListTransactions(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	SortNewestFirst(txs)
	return txs, nil
}

// SortNewestFirst orders by date then creation time, both descending.
func SortNewestFirst(txs []*domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Date != txs[j].Date {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}

// Summary aggregates transactions over a period.
type Summary struct {
	From       civil.Date                 `json:"from"`
	To         civil.Date                 `json:"to"`
	Income     decimal.Decimal            `json:"income"`
	Expenses   decimal.Decimal            `json:"expenses"`
	Balance    decimal.Decimal            `json:"balance"`
	ByCategory map[string]decimal.Decimal `json:"byCategory"`
	Count      int                        `json:"count"`
}

// Summarize totals the user's transactions between from and to. ByCategory holds expenses only.
func (s *Service) Summarize(ctx context.Context, userID string, from, to civil.Date) (*Summary, []*domain.Transaction, error) {
	txs, err := s.List(ctx, userID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("Summarize: %w", err)
	}
	sum := Summarize(txs)
	sum.From, sum.To = from, to
	return sum, txs, nil
}

// Summarize totals txs.
func Summarize(txs []*domain.Transaction) *Summary {
	sum := &Summary{
		Income:     decimal.Zero,
		Expenses:   decimal.Zero,
		ByCategory: make(map[string]decimal.Decimal),
		Count:      len(txs),
	}
	for _, tx := range txs {
		switch tx.Type {
		case domain.Income:
			sum.Income = sum.Income.Add(tx.Amount)
		case domain.Expense:
			sum.Expenses = sum.Expenses.Add(tx.Amount)
			sum.ByCategory[tx.Category] = sum.ByCategory[tx.Category].Add(tx.Amount)
		}
	}
	sum.Balance = sum.Income.Sub(sum.Expenses)
	return sum
}

// MonthRange returns the first and last day of the month containing d.
func MonthRange(d civil.Date) (civil.Date, civil.Date) {
	first := civil.Date{Year: d.Year, Month: d.Month, Day: 1}
	last := civil.DateOf(time.Date(d.Year, d.Month+1, 0, 0, 0, 0, 0, time.UTC))
	return first, last
}
