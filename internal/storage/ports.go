package storage

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=storage

import (
	"context"
	"errors"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmptyPatch = errors.New("at least one field must be provided for update")
	ErrNoChanges  = errors.New("no changes were made")
)

// Ports implemented by every backend.
type (
	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		ListTransactions(ctx context.Context, f TransactionFilter) (TransactionPage, error)
		// UpdateTransaction returns the record before and after the patch.
		UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (before, after core.Transaction, err error)
		// DeleteTransaction returns the removed record.
		DeleteTransaction(ctx context.Context, id string) (core.Transaction, error)
		// TransactionsInRange returns every transaction dated within rng.
		TransactionsInRange(ctx context.Context, rng analytics.DateRange) ([]core.Transaction, error)
	}

	BudgetStore interface {
		// ListBudgets returns the budgets of one month sorted by category.
		ListBudgets(ctx context.Context, month, year int) ([]core.Budget, error)
		GetBudget(ctx context.Context, id string) (core.Budget, error)
		// UpsertBudget inserts or replaces the amount of the budget keyed by
		// (category, month, year). created is false when a row was updated.
		UpsertBudget(ctx context.Context, b core.Budget) (saved core.Budget, created bool, err error)
		DeleteBudget(ctx context.Context, id string) (core.Budget, error)
	}

	DashboardReader interface {
		Dashboard(ctx context.Context, rng analytics.DateRange, recentN int) (core.Dashboard, error)
	}
)
