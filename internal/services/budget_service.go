package services

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

type BudgetService struct {
	store  storage.BudgetStore
	events publisher
	logger *log.StructuredLogger
}

func NewBudgetService(store storage.BudgetStore, events EventPublisher) *BudgetService {
	return &BudgetService{
		store:  store,
		events: publisher{events: events},
		logger: log.NewStructuredLogger(log.Default(log.ComponentBudget)),
	}
}

// List returns the budgets of one month sorted by category.
func (s *BudgetService) List(ctx context.Context, month, year int) ([]core.Budget, error) {
	if err := core.ValidatePeriod(month, year); err != nil {
		return nil, err
	}
	budgets, err := s.store.ListBudgets(ctx, month, year)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// Upsert creates the budget for (category, month, year) or replaces the
// amount of the existing one. created reports which happened.
func (s *BudgetService) Upsert(ctx context.Context, b core.Budget) (core.Budget, bool, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, false, err
	}

	saved, created, err := s.store.UpsertBudget(ctx, b)
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("save budget: %w", err)
	}
	s.logger.LogBudgetSaved(ctx, saved.ID, saved.Category.String(), saved.Month, saved.Year, created)

	action := amqp.ActionUpdated
	if created {
		action = amqp.ActionCreated
	}
	s.events.publish(ctx, amqp.EntityBudget, action, saved.ID, saved.Period())
	return saved, created, nil
}

func (s *BudgetService) Delete(ctx context.Context, id string) (core.Budget, error) {
	removed, err := s.store.DeleteBudget(ctx, id)
	if err != nil {
		return core.Budget{}, err
	}
	s.events.publish(ctx, amqp.EntityBudget, amqp.ActionDeleted, removed.ID, removed.Period())
	return removed, nil
}
