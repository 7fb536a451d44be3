// Package categories holds per-user category lists and resolves free-text labels against them.
package categories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/dompet/internal/domain"
)

// Fallback is the label used when a label is not in the user's list.
const Fallback = "Other"

var (
	defaultExpense = []string{
		"Food & Drinks",
		"Transport",
		"Shopping",
		"Entertainment",
		"Health",
		"Utilities",
		"Housing",
		Fallback,
	}
	defaultIncome = []string{
		"Salary",
		"Freelance",
		"Investment",
		Fallback,
	}
)

var (
	// ErrEmptyLabel is returned for blank category labels.
	ErrEmptyLabel = errors.New("category label is empty")
	// ErrDuplicateLabel is returned when a label appears twice in one list.
	ErrDuplicateLabel = errors.New("duplicate category label")
)

// Defaults returns the category lists new users start with.
func Defaults() domain.UserCategories {
	return domain.UserCategories{
		Expense: append([]string(nil), defaultExpense...),
		Income:  append([]string(nil), defaultIncome...),
	}
}

// Validate checks that every label is non-blank and unique within its list.
func Validate(c domain.UserCategories) error {
	for _, t := range domain.Types {
		seen := make(map[string]bool)
		for i, label := range c.For(t) {
			if strings.TrimSpace(label) == "" {
				return fmt.Errorf("%s category %d: %w", t, i, ErrEmptyLabel)
			}
			if seen[label] {
				return fmt.Errorf("%s category %q: %w", t, label, ErrDuplicateLabel)
			}
			seen[label] = true
		}
	}
	return nil
}

// Registry is an immutable snapshot of one user's categories.
// It is safe for concurrent use.
type Registry struct {
	lists map[domain.TransactionType][]string
	sets  map[domain.TransactionType]map[string]struct{}
}

// NewRegistry builds a registry from c. The lists are copied.
func NewRegistry(c domain.UserCategories) *Registry {
	r := &Registry{
		lists: make(map[domain.TransactionType][]string, len(domain.Types)),
		sets:  make(map[domain.TransactionType]map[string]struct{}, len(domain.Types)),
	}
	for _, t := range domain.Types {
		list := append([]string(nil), c.For(t)...)
		set := make(map[string]struct{}, len(list))
		for _, label := range list {
			set[label] = struct{}{}
		}
		r.lists[t] = list
		r.sets[t] = set
	}
	return r
}

// Get returns a copy of the list for t.
func (r *Registry) Get(t domain.TransactionType) []string {
	return append([]string(nil), r.lists[t]...)
}

// Categories returns a copy of both lists.
func (r *Registry) Categories() domain.UserCategories {
	return domain.UserCategories{
		Expense: r.Get(domain.Expense),
		Income:  r.Get(domain.Income),
	}
}

// Resolve returns label if it is exactly one of the categories for t, otherwise Fallback.
// Matching is case-sensitive.
func (r *Registry) Resolve(t domain.TransactionType, label string) string {
	if _, ok := r.sets[t][label]; ok {
		return label
	}
	return Fallback
}

// Options returns the labels a user may pick for t: the list for t, plus Fallback
// when the user removed it.
func (r *Registry) Options(t domain.TransactionType) []string {
	opts := r.Get(t)
	if _, ok := r.sets[t][Fallback]; !ok {
		opts = append(opts, Fallback)
	}
	return opts
}

// Allows reports whether label is one of Options(t).
func (r *Registry) Allows(t domain.TransactionType, label string) bool {
	return r.Resolve(t, label) == label
}

// All returns the union of every option across types, expense first, without duplicates.
func (r *Registry) All() []string {
	seen := make(map[string]bool)
	var all []string
	for _, t := range domain.Types {
		for _, label := range r.Options(t) {
			if !seen[label] {
				seen[label] = true
				all = append(all, label)
			}
		}
	}
	return all
}
