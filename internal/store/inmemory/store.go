// Package inmemory holds map-backed stores used for local runs without BigQuery and in tests.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/dompet/internal/categories"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/dvloznov/dompet/internal/ledger"
	"github.com/dvloznov/dompet/internal/scan"
)

// Store keeps transactions, category lists and scan records in memory.
// It is safe for concurrent use. Data is lost on restart.
type Store struct {
	mu           sync.RWMutex
	transactions map[string][]*domain.Transaction
	categories   map[string]domain.UserCategories
	scans        []*scan.Record
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		transactions: make(map[string][]*domain.Transaction),
		categories:   make(map[string]domain.UserCategories),
	}
}

// CreateTransaction implements ledger.Store.
func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" || tx.UserID == "" {
		return fmt.Errorf("CreateTransaction: transaction ID and user ID are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.transactions[tx.UserID] {
		if existing.ID == tx.ID {
			return fmt.Errorf("CreateTransaction: transaction %s already exists", tx.ID)
		}
	}

	// Copy so later changes by the caller do not leak in.
	txCopy := *tx
	s.transactions[tx.UserID] = append(s.transactions[tx.UserID], &txCopy)
	return nil
}

// ListTransactions implements ledger.Store.
func (s *Store) ListTransactions(ctx context.Context, userID string, from, to civil.Date) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range s.transactions[userID] {
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		txCopy := *tx
		result = append(result, &txCopy)
	}
	return result, nil
}

// GetCategories implements categories.Store.
func (s *Store) GetCategories(ctx context.Context, userID string) (domain.UserCategories, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[userID]
	if !ok {
		return domain.UserCategories{}, false, nil
	}
	return c.Clone(), true, nil
}

// SaveCategories implements categories.Store. Both lists are replaced.
func (s *Store) SaveCategories(ctx context.Context, userID string, c domain.UserCategories) error {
	if userID == "" {
		return fmt.Errorf("SaveCategories: user ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories[userID] = c.Clone()
	return nil
}

// RecordScan implements scan.Recorder.
func (s *Store) RecordScan(ctx context.Context, rec *scan.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recCopy := *rec
	s.scans = append(s.scans, &recCopy)
	return nil
}

// Scans returns the recorded scans for a user, oldest first.
func (s *Store) Scans(userID string) []*scan.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*scan.Record
	for _, rec := range s.scans {
		if rec.UserID == userID {
			recCopy := *rec
			result = append(result, &recCopy)
		}
	}
	return result
}

var (
	_ ledger.Store     = (*Store)(nil)
	_ categories.Store = (*Store)(nil)
	_ scan.Recorder    = (*Store)(nil)
)
