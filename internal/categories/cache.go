package categories

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/dompet/internal/domain"
	"github.com/dvloznov/dompet/internal/logger"
)

// Store persists category lists per user. Saves replace both lists.
type Store interface {
	// GetCategories returns the user's lists. found is false when the user has none yet.
	GetCategories(ctx context.Context, userID string) (c domain.UserCategories, found bool, err error)
	SaveCategories(ctx context.Context, userID string, c domain.UserCategories) error
}

// Cache loads registries from a Store once per user and hands out immutable snapshots.
// Entries are dropped after a save and when Invalidate or Reset is called.
type Cache struct {
	store Store

	mu      sync.Mutex
	entries map[string]*Registry
	gen     uint64
}

// NewCache creates an empty cache over store.
func NewCache(store Store) *Cache {
	return &Cache{
		store:   store,
		entries: make(map[string]*Registry),
	}
}

// Registry returns the user's registry, loading it on first use.
// A user with no stored categories gets the defaults, which are saved for them.
func (c *Cache) Registry(ctx context.Context, userID string) (*Registry, error) {
	c.mu.Lock()
	if reg, ok := c.entries[userID]; ok {
		c.mu.Unlock()
		return reg, nil
	}
	gen := c.gen
	c.mu.Unlock()

	cats, found, err := c.store.GetCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Registry: get categories: %w", err)
	}
	if !found {
		cats = Defaults()
		if err := c.store.SaveCategories(ctx, userID, cats); err != nil {
			return nil, fmt.Errorf("Registry: save default categories: %w", err)
		}
		log := logger.FromContext(ctx)
		log.Info().Str("user_id", userID).Msg("Created default categories")
	}

	reg := NewRegistry(cats)

	c.mu.Lock()
	defer c.mu.Unlock()
	// A concurrent load may have won; keep the first snapshot so readers agree.
	if existing, ok := c.entries[userID]; ok {
		return existing, nil
	}
	// Do not cache what was read before an invalidation.
	if gen == c.gen {
		c.entries[userID] = reg
	}
	return reg, nil
}

// Save validates and stores a full replacement of the user's lists, then drops the cached
// registry. Registries handed out earlier stay unchanged.
func (c *Cache) Save(ctx context.Context, userID string, cats domain.UserCategories) error {
	if err := Validate(cats); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	if err := c.store.SaveCategories(ctx, userID, cats.Clone()); err != nil {
		return fmt.Errorf("Save: save categories: %w", err)
	}
	c.Invalidate(userID)
	return nil
}

// Invalidate drops the cached registry for one user.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	c.gen++
}

// Reset drops every cached registry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Registry)
	c.gen++
}
