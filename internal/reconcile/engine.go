// Package reconcile turns an extraction result into a draft transaction that fits the user's
// categories and the entry form the user is on.
package reconcile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/dompet/internal/amount"
	"github.com/dvloznov/dompet/internal/categories"
	"github.com/dvloznov/dompet/internal/domain"
)

// DefaultDescription replaces an empty description.
const DefaultDescription = "Scanned receipt"

var (
	// ErrTypeMismatch matches every *TypeMismatchError.
	ErrTypeMismatch = errors.New("transaction type mismatch")
	// ErrInvalidAmount matches every *InvalidAmountError.
	ErrInvalidAmount = errors.New("invalid amount")
)

// TypeMismatchError is returned when the receipt is of a different type than the form expects.
type TypeMismatchError struct {
	Scanned  domain.TransactionType
	Expected domain.TransactionType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("receipt looks like %s but %s was expected", e.Scanned, e.Expected)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// InvalidAmountError is returned when the amount does not normalize to a positive number.
// Partial holds every other reconciled field so a form can still be pre-filled.
type InvalidAmountError struct {
	Raw     string
	Partial domain.Draft
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("amount %q is not a positive number", e.Raw)
}

func (e *InvalidAmountError) Is(target error) bool {
	return target == ErrInvalidAmount
}

// Engine reconciles extraction results. It is stateless apart from its settings
// and safe for concurrent use.
type Engine struct {
	now         func() time.Time
	loc         *time.Location
	placeholder string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for the date fallback.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLocation sets the time zone "today" is computed in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithPlaceholder sets the description used when the receipt has none.
func WithPlaceholder(s string) Option {
	return func(e *Engine) {
		if strings.TrimSpace(s) != "" {
			e.placeholder = s
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:         time.Now,
		loc:         time.UTC,
		placeholder: DefaultDescription,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile validates and normalizes res against the registry snapshot reg.
// expected is the type of the form the user is on; empty means any type is accepted.
//
// Rules, in order:
//  1. a result whose type differs from expected is rejected with *TypeMismatchError;
//  2. a missing or unparseable date becomes today;
//  3. an amount that does not normalize to a positive number is rejected with *InvalidAmountError;
//  4. a category outside the user's list for the type becomes the fallback category;
//  5. an empty description becomes the placeholder.
//
// Reconcile never partially succeeds: it returns either a draft or an error.
func (e *Engine) Reconcile(reg *categories.Registry, res domain.ExtractionResult, expected domain.TransactionType) (*domain.Draft, error) {
	txType := res.Type
	if expected != "" && res.Type.Valid() && res.Type != expected {
		return nil, &TypeMismatchError{Scanned: res.Type, Expected: expected}
	}
	if !txType.Valid() {
		// A result without a usable type follows the form, or the prompt's default.
		txType = expected
		if !txType.Valid() {
			txType = domain.Expense
		}
	}

	draft := domain.Draft{
		Date:        e.resolveDate(res.Date),
		Category:    reg.Resolve(txType, res.Category),
		Description: e.resolveDescription(res.Description),
		Type:        txType,
	}

	amt := amount.Normalize(res.Amount)
	if !amt.IsPositive() {
		return nil, &InvalidAmountError{Raw: res.Amount.String(), Partial: draft}
	}
	draft.Amount = amt

	return &draft, nil
}

// Today returns the current date in the engine's time zone.
func (e *Engine) Today() civil.Date {
	return civil.DateOf(e.now().In(e.loc))
}

func (e *Engine) resolveDate(s string) civil.Date {
	s = strings.TrimSpace(s)
	if d, err := civil.ParseDate(s); err == nil && d.IsValid() {
		return d
	}
	// Models sometimes return a full timestamp.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return civil.DateOf(t)
	}
	return e.Today()
}

func (e *Engine) resolveDescription(s string) string {
	if strings.TrimSpace(s) == "" {
		return e.placeholder
	}
	return s
}
