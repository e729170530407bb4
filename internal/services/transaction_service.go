package services

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// TransactionService validates transaction writes, stores them and
// announces them on the event bus.
type TransactionService struct {
	store  storage.TransactionStore
	events publisher
	logger *log.StructuredLogger
}

// NewTransactionService accepts a nil publisher.
func NewTransactionService(store storage.TransactionStore, events EventPublisher) *TransactionService {
	return &TransactionService{
		store:  store,
		events: publisher{events: events},
		logger: log.NewStructuredLogger(log.Default(log.ComponentTransaction)),
	}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Description = strings.TrimSpace(t.Description)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.logger.LogTransactionCreated(ctx, saved.ID, saved.Amount.Cents, saved.Category.String())

	s.events.publish(ctx, amqp.EntityTransaction, amqp.ActionCreated, saved.ID, saved.Date.YearMonth())
	return saved, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// List applies paging and sorting defaults before validating the filter.
func (s *TransactionService) List(ctx context.Context, f storage.TransactionFilter) (storage.TransactionPage, storage.TransactionFilter, error) {
	f = f.WithDefaults()
	if err := f.Validate(); err != nil {
		return storage.TransactionPage{}, f, err
	}
	page, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return storage.TransactionPage{}, f, fmt.Errorf("list transactions: %w", err)
	}
	return page, f, nil
}

// Update applies a partial update. A date change announces both the old
// and the new month.
func (s *TransactionService) Update(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	if p.IsEmpty() {
		return core.Transaction{}, storage.ErrEmptyPatch
	}
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}

	before, after, err := s.store.UpdateTransaction(ctx, id, p)
	if err != nil {
		return core.Transaction{}, err
	}

	s.events.publish(ctx, amqp.EntityTransaction, amqp.ActionUpdated, after.ID,
		before.Date.YearMonth(), after.Date.YearMonth())
	return after, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) (core.Transaction, error) {
	removed, err := s.store.DeleteTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	s.events.publish(ctx, amqp.EntityTransaction, amqp.ActionDeleted, removed.ID, removed.Date.YearMonth())
	return removed, nil
}
