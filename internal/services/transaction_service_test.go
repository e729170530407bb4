package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.ChangeEvent
	err    error
}

func (p *recordingPublisher) PublishChange(_ context.Context, evt *amqp.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) last(t *testing.T) *amqp.ChangeEvent {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.events, "expected a published event")
	return p.events[len(p.events)-1]
}

func june(day int) core.Date { return core.NewDate(2024, 6, day) }

func TestTransactionService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storage.NewMockTransactionStore(ctrl)
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub)

	ctx := context.Background()
	input := core.Transaction{
		Amount:      core.Money{Cents: -4599},
		Date:        june(14),
		Description: "  Groceries  ",
		Category:    core.CategoryFoodDining,
	}

	store.EXPECT().
		CreateTransaction(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, tx core.Transaction) (core.Transaction, error) {
			assert.Equal(t, "Groceries", tx.Description)
			tx.ID = "tx-1"
			return tx, nil
		})

	saved, err := svc.Create(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "tx-1", saved.ID)

	evt := pub.last(t)
	assert.Equal(t, amqp.EntityTransaction, evt.Entity)
	assert.Equal(t, amqp.ActionCreated, evt.Action)
	assert.Equal(t, []core.YearMonth{{Year: 2024, Month: 6}}, evt.Periods)
}

func TestTransactionService_CreateValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storage.NewMockTransactionStore(ctrl)
	svc := NewTransactionService(store, nil)

	_, err := svc.Create(context.Background(), core.Transaction{Amount: core.Money{Cents: -1}})

	var verrs core.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3, "description, date and category all fail")
	assert.ErrorIs(t, err, core.ErrEmptyDescription)
	assert.ErrorIs(t, err, core.ErrInvalidCategory)
}

func TestTransactionService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storage.NewMockTransactionStore(ctrl)
	pub := &recordingPublisher{err: errors.New("circuit breaker is open")}
	svc := NewTransactionService(store, pub)

	store.EXPECT().
		CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx core.Transaction) (core.Transaction, error) {
			tx.ID = "tx-2"
			return tx, nil
		})

	saved, err := svc.Create(context.Background(), core.Transaction{
		Amount:      core.Money{Cents: 100000},
		Date:        june(1),
		Description: "Salary",
		Category:    core.CategoryIncomeSalary,
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-2", saved.ID)
	assert.Len(t, pub.events, 1)
}

func TestTransactionService_StoreErrorIsWrapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storage.NewMockTransactionStore(ctrl)
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub)

	dbErr := errors.New("disk full")
	store.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(core.Transaction{}, dbErr)

	_, err := svc.Create(context.Background(), core.Transaction{
		Amount:      core.Money{Cents: -100},
		Date:        june(1),
		Description: "Coffee",
		Category:    core.CategoryFoodDining,
	})
	assert.ErrorIs(t, err, dbErr)
	assert.Empty(t, pub.events, "nothing is published for a failed write")
}

func TestTransactionService_UpdateAnnouncesBothMonths(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storage.NewMockTransactionStore(ctrl)
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub)

	newDate := core.NewDate(2024, 7, 2)
	patch := core.TransactionPatch{Date: &newDate}
	before := core.Transaction{ID: "tx-1", Date: june(30), Description: "Rent", Category: core.CategoryBillsUtilities}
	after := before
	after.Date = newDate

	store.EXPECT().UpdateTransaction(gomock.Any(), "tx-1", patch).Return(before, after, nil)

	got, err := svc.Update(context.Background(), "tx-1", patch)
	require.NoError(t, err)
	assert.Equal(t, newDate, got.Date)

	evt := pub.last(t)
	assert.Equal(t, amqp.ActionUpdated, evt.Action)
	assert.Equal(t, []core.YearMonth{{Year: 2024, Month: 6}, {Year: 2024, Month: 7}}, evt.Periods)
}

func TestTransactionService_UpdateRejectsBadPatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storage.NewMockTransactionStore(ctrl)
	svc := NewTransactionService(store, nil)

	_, err := svc.Update(context.Background(), "tx-1", core.TransactionPatch{})
	assert.ErrorIs(t, err, storage.ErrEmptyPatch)

	blank := "   "
	_, err = svc.Update(context.Background(), "tx-1", core.TransactionPatch{Description: &blank})
	assert.ErrorIs(t, err, core.ErrEmptyDescription)
}

func TestTransactionService_UpdateNoChanges(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storage.NewMockTransactionStore(ctrl)
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub)

	desc := "Rent"
	store.EXPECT().
		UpdateTransaction(gomock.Any(), "tx-1", gomock.Any()).
		Return(core.Transaction{}, core.Transaction{}, storage.ErrNoChanges)

	_, err := svc.Update(context.Background(), "tx-1", core.TransactionPatch{Description: &desc})
	assert.ErrorIs(t, err, storage.ErrNoChanges)
	assert.Empty(t, pub.events)
}

func TestTransactionService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storage.NewMockTransactionStore(ctrl)
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub)

	store.EXPECT().DeleteTransaction(gomock.Any(), "tx-1").
		Return(core.Transaction{ID: "tx-1", Date: june(3)}, nil)
	store.EXPECT().DeleteTransaction(gomock.Any(), "missing").
		Return(core.Transaction{}, storage.ErrNotFound)

	removed, err := svc.Delete(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "tx-1", removed.ID)
	assert.Equal(t, amqp.ActionDeleted, pub.last(t).Action)

	_, err = svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Len(t, pub.events, 1)
}

func TestTransactionService_ListAppliesDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storage.NewMockTransactionStore(ctrl)
	svc := NewTransactionService(store, nil)

	store.EXPECT().
		ListTransactions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f storage.TransactionFilter) (storage.TransactionPage, error) {
			assert.Equal(t, storage.DefaultLimit, f.Limit)
			assert.Equal(t, storage.SortByDate, f.SortBy)
			assert.Equal(t, storage.SortDesc, f.SortOrder)
			return storage.TransactionPage{Total: 0}, nil
		})

	_, f, err := svc.List(context.Background(), storage.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, storage.DefaultLimit, f.Limit)

	_, _, err = svc.List(context.Background(), storage.TransactionFilter{Limit: 500})
	var verrs core.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "limit", verrs[0].Field)
}
