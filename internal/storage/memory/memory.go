// Package memory is a process-local storage backend for development and
// tests. Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type budgetKey struct {
	category core.Category
	month    int
	year     int
}

type Store struct {
	mu      sync.RWMutex
	txs     []core.Transaction
	budgets []core.Budget
	now     func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now}
}

// NewWithClock returns a Store that stamps records with now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

func (s *Store) Close() error                 { return nil }
func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Stats(_ context.Context) (storage.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storage.Stats{Transactions: int64(len(s.txs)), Budgets: int64(len(s.budgets))}, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt, t.UpdatedAt = now, now
	s.txs = append(s.txs, t)
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.txIndex(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
	}
	return s.txs[i], nil
}

func (s *Store) ListTransactions(_ context.Context, f storage.TransactionFilter) (storage.TransactionPage, error) {
	f = f.WithDefaults()

	s.mu.RLock()
	matched := make([]core.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		if matches(t, f) {
			matched = append(matched, t)
		}
	}
	s.mu.RUnlock()

	less := lessFunc(f.SortBy)
	sort.SliceStable(matched, func(i, j int) bool {
		if f.SortOrder == storage.SortAsc {
			return less(matched[i], matched[j])
		}
		return less(matched[j], matched[i])
	})

	total := int64(len(matched))
	start := min(f.Skip, len(matched))
	end := min(start+f.Limit, len(matched))
	return storage.TransactionPage{Items: matched[start:end], Total: total}, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id string, p core.TransactionPatch) (core.Transaction, core.Transaction, error) {
	if p.IsEmpty() {
		return core.Transaction{}, core.Transaction{}, storage.ErrEmptyPatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txIndex(id)
	if i < 0 {
		return core.Transaction{}, core.Transaction{}, fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
	}
	before := s.txs[i]
	after, changed := p.Apply(before)
	if !changed {
		return before, before, storage.ErrNoChanges
	}
	after.UpdatedAt = s.now().UTC()
	s.txs[i] = after
	return before, after, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txIndex(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
	}
	removed := s.txs[i]
	s.txs = append(s.txs[:i], s.txs[i+1:]...)
	return removed, nil
}

// TransactionsInRange returns the range's transactions oldest first, by date
// then creation time, matching the SQLite store.
func (s *Store) TransactionsInRange(_ context.Context, rng analytics.DateRange) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := analytics.FilterRange(s.txs, rng)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) ListBudgets(_ context.Context, month, year int) ([]core.Budget, error) {
	s.mu.RLock()
	out := make([]core.Budget, 0)
	for _, b := range s.budgets {
		if b.Month == month && b.Year == year {
			out = append(out, b)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Category.String() < out[j].Category.String() })
	return out, nil
}

func (s *Store) GetBudget(_ context.Context, id string) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.budgetIndex(id)
	if i < 0 {
		return core.Budget{}, fmt.Errorf("budget %s: %w", id, storage.ErrNotFound)
	}
	return s.budgets[i], nil
}

func (s *Store) UpsertBudget(_ context.Context, b core.Budget) (core.Budget, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	key := budgetKey{b.Category, b.Month, b.Year}
	for i, existing := range s.budgets {
		if (budgetKey{existing.Category, existing.Month, existing.Year}) == key {
			existing.Amount = b.Amount
			existing.UpdatedAt = now
			s.budgets[i] = existing
			return existing, false, nil
		}
	}
	b.ID = uuid.NewString()
	b.CreatedAt, b.UpdatedAt = now, now
	s.budgets = append(s.budgets, b)
	return b, true, nil
}

func (s *Store) DeleteBudget(_ context.Context, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.budgetIndex(id)
	if i < 0 {
		return core.Budget{}, fmt.Errorf("budget %s: %w", id, storage.ErrNotFound)
	}
	removed := s.budgets[i]
	s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
	return removed, nil
}

func (s *Store) Dashboard(_ context.Context, rng analytics.DateRange, recentN int) (core.Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return analytics.BuildDashboard(s.txs, rng, recentN), nil
}

func (s *Store) txIndex(id string) int {
	for i := range s.txs {
		if s.txs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) budgetIndex(id string) int {
	for i := range s.budgets {
		if s.budgets[i].ID == id {
			return i
		}
	}
	return -1
}

func matches(t core.Transaction, f storage.TransactionFilter) bool {
	if f.DateFrom != nil && t.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && t.Date.After(*f.DateTo) {
		return false
	}
	if f.MinAmount != nil && t.Amount.Cents < f.MinAmount.Cents {
		return false
	}
	if f.MaxAmount != nil && t.Amount.Cents > f.MaxAmount.Cents {
		return false
	}
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	return true
}

// lessFunc orders by the sort field, then by creation time and id so that
// paging is stable.
func lessFunc(field storage.SortField) func(a, b core.Transaction) bool {
	tie := func(a, b core.Transaction) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	}
	switch field {
	case storage.SortByAmount:
		return func(a, b core.Transaction) bool {
			if a.Amount.Cents != b.Amount.Cents {
				return a.Amount.Cents < b.Amount.Cents
			}
			return tie(a, b)
		}
	case storage.SortByCreatedAt:
		return tie
	default:
		return func(a, b core.Transaction) bool {
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			return tie(a, b)
		}
	}
}
