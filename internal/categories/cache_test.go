package categories

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/dompet/internal/domain"
)

// mockStore is a mock implementation of Store for testing.
type mockStore struct {
	GetCategoriesFunc  func(ctx context.Context, userID string) (domain.UserCategories, bool, error)
	SaveCategoriesFunc func(ctx context.Context, userID string, c domain.UserCategories) error

	gets  int
	saves []domain.UserCategories
}

func (m *mockStore) GetCategories(ctx context.Context, userID string) (domain.UserCategories, bool, error) {
	m.gets++
	if m.GetCategoriesFunc != nil {
		return m.GetCategoriesFunc(ctx, userID)
	}
	return domain.UserCategories{}, false, nil
}

func (m *mockStore) SaveCategories(ctx context.Context, userID string, c domain.UserCategories) error {
	m.saves = append(m.saves, c)
	if m.SaveCategoriesFunc != nil {
		return m.SaveCategoriesFunc(ctx, userID, c)
	}
	return nil
}

func TestCache_LoadsOncePerUser(t *testing.T) {
	store := &mockStore{
		GetCategoriesFunc: func(ctx context.Context, userID string) (domain.UserCategories, bool, error) {
			return domain.UserCategories{Expense: []string{userID}}, true, nil
		},
	}
	cache := NewCache(store)
	ctx := context.Background()

	first, err := cache.Registry(ctx, "alice")
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}
	second, err := cache.Registry(ctx, "alice")
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}
	if first != second {
		t.Error("second call did not return cached registry")
	}
	if store.gets != 1 {
		t.Errorf("store read %d times, want 1", store.gets)
	}

	bob, err := cache.Registry(ctx, "bob")
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}
	if got := bob.Resolve(domain.Expense, "bob"); got != "bob" {
		t.Errorf("bob's registry resolved %q", got)
	}
	if got := bob.Resolve(domain.Expense, "alice"); got != Fallback {
		t.Errorf("bob's registry leaked alice's categories: %q", got)
	}
}

func TestCache_CreatesDefaultsForNewUser(t *testing.T) {
	store := &mockStore{}
	cache := NewCache(store)

	reg, err := cache.Registry(context.Background(), "new-user")
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}
	if len(store.saves) != 1 {
		t.Fatalf("saved %d times, want 1", len(store.saves))
	}
	if got := reg.Get(domain.Expense); len(got) != len(Defaults().Expense) {
		t.Errorf("Get(expense) = %v, want defaults", got)
	}
}

func TestCache_StoreError(t *testing.T) {
	storeErr := errors.New("unavailable")
	store := &mockStore{
		GetCategoriesFunc: func(ctx context.Context, userID string) (domain.UserCategories, bool, error) {
			return domain.UserCategories{}, false, storeErr
		},
	}
	cache := NewCache(store)

	if _, err := cache.Registry(context.Background(), "alice"); !errors.Is(err, storeErr) {
		t.Fatalf("Registry() error = %v, want %v", err, storeErr)
	}
	// Failures are not cached.
	_, _ = cache.Registry(context.Background(), "alice")
	if store.gets != 2 {
		t.Errorf("store read %d times, want 2", store.gets)
	}
}

func TestCache_SaveInvalidates(t *testing.T) {
	current := domain.UserCategories{Expense: []string{"Food"}}
	store := &mockStore{
		GetCategoriesFunc: func(ctx context.Context, userID string) (domain.UserCategories, bool, error) {
			return current, true, nil
		},
		SaveCategoriesFunc: func(ctx context.Context, userID string, c domain.UserCategories) error {
			current = c
			return nil
		},
	}
	cache := NewCache(store)
	ctx := context.Background()

	before, err := cache.Registry(ctx, "alice")
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}

	if err := cache.Save(ctx, "alice", domain.UserCategories{Expense: []string{"Groceries"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	after, err := cache.Registry(ctx, "alice")
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}
	if got := after.Resolve(domain.Expense, "Groceries"); got != "Groceries" {
		t.Errorf("after save Resolve = %q, want Groceries", got)
	}
	if got := before.Resolve(domain.Expense, "Food"); got != "Food" {
		t.Errorf("earlier snapshot changed: Resolve = %q", got)
	}
}

func TestCache_SaveRejectsInvalid(t *testing.T) {
	store := &mockStore{}
	cache := NewCache(store)

	err := cache.Save(context.Background(), "alice", domain.UserCategories{Expense: []string{"A", "A"}})
	if !errors.Is(err, ErrDuplicateLabel) {
		t.Fatalf("Save() error = %v, want %v", err, ErrDuplicateLabel)
	}
	if len(store.saves) != 0 {
		t.Error("invalid categories were saved")
	}
}

func TestCache_Reset(t *testing.T) {
	store := &mockStore{
		GetCategoriesFunc: func(ctx context.Context, userID string) (domain.UserCategories, bool, error) {
			return Defaults(), true, nil
		},
	}
	cache := NewCache(store)
	ctx := context.Background()

	_, _ = cache.Registry(ctx, "alice")
	cache.Reset()
	_, _ = cache.Registry(ctx, "alice")
	if store.gets != 2 {
		t.Errorf("store read %d times, want 2", store.gets)
	}
}
