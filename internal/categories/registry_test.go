package categories

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dvloznov/dompet/internal/domain"
)

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry(domain.UserCategories{
		Expense: []string{"Food & Drinks", "Transport", Fallback},
		Income:  []string{"Salary"},
	})

	tests := []struct {
		name  string
		typ   domain.TransactionType
		label string
		want  string
	}{
		{name: "exact expense", typ: domain.Expense, label: "Transport", want: "Transport"},
		{name: "exact income", typ: domain.Income, label: "Salary", want: "Salary"},
		{name: "case differs", typ: domain.Expense, label: "transport", want: Fallback},
		{name: "surrounding spaces", typ: domain.Expense, label: " Transport", want: Fallback},
		{name: "label from other list", typ: domain.Income, label: "Transport", want: Fallback},
		{name: "empty", typ: domain.Expense, label: "", want: Fallback},
		{name: "fallback in list", typ: domain.Expense, label: Fallback, want: Fallback},
		{name: "fallback not in list", typ: domain.Income, label: Fallback, want: Fallback},
		{name: "unknown type", typ: domain.TransactionType("transfer"), label: "Salary", want: Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reg.Resolve(tt.typ, tt.label); got != tt.want {
				t.Errorf("Resolve(%s, %q) = %q, want %q", tt.typ, tt.label, got, tt.want)
			}
		})
	}
}

func TestRegistryResolve_AlwaysReturnsAnOption(t *testing.T) {
	reg := NewRegistry(Defaults())
	labels := []string{"Food & Drinks", "Salary", "Groceries", "", "OTHER", Fallback}

	for _, typ := range domain.Types {
		opts := reg.Options(typ)
		for _, label := range labels {
			got := reg.Resolve(typ, label)
			if !contains(opts, got) {
				t.Errorf("Resolve(%s, %q) = %q, not in options %v", typ, label, got, opts)
			}
			if again := reg.Resolve(typ, got); again != got {
				t.Errorf("Resolve not idempotent: %q then %q", got, again)
			}
		}
	}
}

func TestRegistryIsSnapshot(t *testing.T) {
	cats := domain.UserCategories{Expense: []string{"Food"}, Income: []string{"Salary"}}
	reg := NewRegistry(cats)

	cats.Expense[0] = "Changed"
	if got := reg.Resolve(domain.Expense, "Food"); got != "Food" {
		t.Errorf("registry changed with its input: Resolve = %q", got)
	}

	list := reg.Get(domain.Expense)
	list[0] = "Changed"
	if got := reg.Get(domain.Expense); got[0] != "Food" {
		t.Errorf("Get returned shared slice: %v", got)
	}
}

func TestRegistryCategories(t *testing.T) {
	reg := NewRegistry(domain.UserCategories{Expense: []string{"Food", "Rent"}, Income: []string{"Salary"}})

	got := reg.Categories()
	want := domain.UserCategories{Expense: []string{"Food", "Rent"}, Income: []string{"Salary"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Categories() = %+v, want %+v", got, want)
	}

	got.Expense[0] = "Changed"
	if reg.Categories().Expense[0] != "Food" {
		t.Error("Categories returned shared slices")
	}
}

func TestRegistryOptions(t *testing.T) {
	reg := NewRegistry(domain.UserCategories{
		Expense: []string{"Food", Fallback, "Rent"},
		Income:  []string{"Salary"},
	})

	if got, want := reg.Options(domain.Expense), []string{"Food", Fallback, "Rent"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Options(expense) = %v, want %v", got, want)
	}
	if got, want := reg.Options(domain.Income), []string{"Salary", Fallback}; !reflect.DeepEqual(got, want) {
		t.Errorf("Options(income) = %v, want %v", got, want)
	}
	if got, want := reg.All(), []string{"Food", Fallback, "Rent", "Salary"}; !reflect.DeepEqual(got, want) {
		t.Errorf("All() = %v, want %v", got, want)
	}
	if !reg.Allows(domain.Income, Fallback) {
		t.Error("Allows(income, fallback) = false")
	}
	if reg.Allows(domain.Income, "Food") {
		t.Error("Allows(income, Food) = true")
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if err := Validate(d); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	for _, typ := range domain.Types {
		if !contains(d.For(typ), Fallback) {
			t.Errorf("defaults for %s miss %q", typ, Fallback)
		}
	}

	d.Expense[0] = "Changed"
	if Defaults().Expense[0] == "Changed" {
		t.Error("Defaults returned shared slice")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cats    domain.UserCategories
		wantErr error
	}{
		{name: "valid", cats: domain.UserCategories{Expense: []string{"A", "B"}, Income: []string{"A"}}},
		{name: "empty lists", cats: domain.UserCategories{}},
		{name: "blank label", cats: domain.UserCategories{Expense: []string{"A", "  "}}, wantErr: ErrEmptyLabel},
		{name: "duplicate", cats: domain.UserCategories{Income: []string{"A", "A"}}, wantErr: ErrDuplicateLabel},
		{name: "case variants are distinct", cats: domain.UserCategories{Income: []string{"a", "A"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cats)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
