// Package storagetest holds behaviour checks shared by every storage
// backend.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Factory returns an empty store. The store is closed by the suite.
type Factory func(t *testing.T) storage.Store

// Run exercises a backend against the storage ports.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"GetMissing", testGetMissing},
		{"ListFiltersSortsAndPages", testList},
		{"Update", testUpdate},
		{"Delete", testDelete},
		{"TransactionsInRange", testInRange},
		{"BudgetUpsert", testBudgetUpsert},
		{"BudgetListAndDelete", testBudgetListAndDelete},
		{"Dashboard", testDashboard},
		{"Stats", testStats},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func newTx(cents int64, cat core.Category, y, m, d int, desc string) core.Transaction {
	return core.Transaction{
		Amount:      core.Money{Cents: cents},
		Date:        core.NewDate(y, m, d),
		Description: desc,
		Category:    cat,
	}
}

func mustCreate(t *testing.T, s storage.Store, tx core.Transaction) core.Transaction {
	t.Helper()
	saved, err := s.CreateTransaction(context.Background(), tx)
	require.NoError(t, err)
	return saved
}

func testCreateAndGet(t *testing.T, s storage.Store) {
	ctx := context.Background()
	saved := mustCreate(t, s, newTx(-1250, core.CategoryFoodDining, 2024, 6, 3, "Lunch"))

	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.Equal(t, saved.CreatedAt, saved.UpdatedAt)

	got, err := s.GetTransaction(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, int64(-1250), got.Amount.Cents)
	assert.Equal(t, "2024-06-03", got.Date.String())
	assert.Equal(t, "Lunch", got.Description)
	assert.Equal(t, core.CategoryFoodDining, got.Category)
	assert.True(t, saved.CreatedAt.Equal(got.CreatedAt))
}

func testGetMissing(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, err := s.GetTransaction(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetBudget(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testList(t *testing.T, s storage.Store) {
	ctx := context.Background()
	mustCreate(t, s, newTx(-500, core.CategoryFoodDining, 2024, 6, 1, "Coffee"))
	mustCreate(t, s, newTx(300000, core.CategoryIncomeSalary, 2024, 6, 2, "Salary"))
	mustCreate(t, s, newTx(-4000, core.CategoryTransportation, 2024, 6, 3, "Train"))
	mustCreate(t, s, newTx(-2000, core.CategoryFoodDining, 2024, 6, 4, "Dinner"))

	page, err := s.ListTransactions(ctx, storage.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 4)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, "Dinner", page.Items[0].Description, "default is date descending")

	cat := core.CategoryFoodDining
	page, err = s.ListTransactions(ctx, storage.TransactionFilter{Category: &cat, SortBy: storage.SortByAmount, SortOrder: storage.SortAsc})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Dinner", page.Items[0].Description)
	assert.Equal(t, "Coffee", page.Items[1].Description)

	from, to := core.NewDate(2024, 6, 2), core.NewDate(2024, 6, 3)
	page, err = s.ListTransactions(ctx, storage.TransactionFilter{DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	minAmount := core.Money{Cents: 0}
	page, err = s.ListTransactions(ctx, storage.TransactionFilter{MinAmount: &minAmount})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Salary", page.Items[0].Description)

	f := storage.TransactionFilter{Limit: 3, Skip: 2, SortOrder: storage.SortAsc}
	page, err = s.ListTransactions(ctx, f)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, "Train", page.Items[0].Description)
	assert.False(t, page.HasMore(f))

	f = storage.TransactionFilter{Limit: 2}
	page, err = s.ListTransactions(ctx, f)
	require.NoError(t, err)
	assert.True(t, page.HasMore(f))
}

func testUpdate(t *testing.T, s storage.Store) {
	ctx := context.Background()
	saved := mustCreate(t, s, newTx(-1000, core.CategoryShopping, 2024, 6, 5, "Shoes"))

	_, _, err := s.UpdateTransaction(ctx, saved.ID, core.TransactionPatch{})
	assert.ErrorIs(t, err, storage.ErrEmptyPatch)

	same := "Shoes"
	_, _, err = s.UpdateTransaction(ctx, saved.ID, core.TransactionPatch{Description: &same})
	assert.ErrorIs(t, err, storage.ErrNoChanges)

	amount := core.Money{Cents: -1500}
	cat := core.CategoryOther
	before, after, err := s.UpdateTransaction(ctx, saved.ID, core.TransactionPatch{Amount: &amount, Category: &cat})
	require.NoError(t, err)
	assert.Equal(t, int64(-1000), before.Amount.Cents)
	assert.Equal(t, core.CategoryShopping, before.Category)
	assert.Equal(t, int64(-1500), after.Amount.Cents)
	assert.Equal(t, core.CategoryOther, after.Category)
	assert.Equal(t, "Shoes", after.Description)
	assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))

	got, err := s.GetTransaction(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-1500), got.Amount.Cents)

	_, _, err = s.UpdateTransaction(ctx, "missing", core.TransactionPatch{Amount: &amount})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testDelete(t *testing.T, s storage.Store) {
	ctx := context.Background()
	saved := mustCreate(t, s, newTx(-700, core.CategoryEntertainment, 2024, 6, 6, "Cinema"))

	removed, err := s.DeleteTransaction(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, removed.ID)
	assert.Equal(t, "Cinema", removed.Description)

	_, err = s.GetTransaction(ctx, saved.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.DeleteTransaction(ctx, saved.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testInRange(t *testing.T, s storage.Store) {
	ctx := context.Background()
	mustCreate(t, s, newTx(-100, core.CategoryOther, 2024, 5, 31, "May"))
	mustCreate(t, s, newTx(-300, core.CategoryOther, 2024, 6, 30, "June last"))
	mustCreate(t, s, newTx(-250, core.CategoryShopping, 2024, 6, 15, "June mid"))
	mustCreate(t, s, newTx(-200, core.CategoryOther, 2024, 6, 1, "June first"))
	mustCreate(t, s, newTx(-400, core.CategoryOther, 2024, 7, 1, "July"))

	got, err := s.TransactionsInRange(ctx, analytics.MonthRange(2024, 6))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "June first", got[0].Description, "oldest date first, not insertion order")
	assert.Equal(t, "June mid", got[1].Description)
	assert.Equal(t, "June last", got[2].Description)
}

func testBudgetUpsert(t *testing.T, s storage.Store) {
	ctx := context.Background()
	b := core.Budget{Category: core.CategoryFoodDining, Amount: core.Money{Cents: 40000}, Month: 6, Year: 2024}

	first, created, err := s.UpsertBudget(ctx, b)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.ID)

	b.Amount = core.Money{Cents: 50000}
	second, created, err := s.UpsertBudget(ctx, b)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(50000), second.Amount.Cents)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))

	b.Month = 7
	third, created, err := s.UpsertBudget(ctx, b)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, third.ID)
}

func testBudgetListAndDelete(t *testing.T, s storage.Store) {
	ctx := context.Background()
	for _, cat := range []core.Category{core.CategoryFoodDining, core.CategoryBillsUtilities, core.CategoryEntertainment} {
		_, _, err := s.UpsertBudget(ctx, core.Budget{Category: cat, Amount: core.Money{Cents: 10000}, Month: 6, Year: 2024})
		require.NoError(t, err)
	}
	_, _, err := s.UpsertBudget(ctx, core.Budget{Category: core.CategoryOther, Amount: core.Money{Cents: 10000}, Month: 5, Year: 2024})
	require.NoError(t, err)

	got, err := s.ListBudgets(ctx, 6, 2024)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, core.CategoryBillsUtilities, got[0].Category)
	assert.Equal(t, core.CategoryEntertainment, got[1].Category)
	assert.Equal(t, core.CategoryFoodDining, got[2].Category)

	removed, err := s.DeleteBudget(ctx, got[0].ID)
	require.NoError(t, err)
	assert.Equal(t, got[0].ID, removed.ID)

	got, err = s.ListBudgets(ctx, 6, 2024)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = s.DeleteBudget(ctx, removed.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	empty, err := s.ListBudgets(ctx, 1, 2030)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testDashboard(t *testing.T, s storage.Store) {
	ctx := context.Background()
	mustCreate(t, s, newTx(500000, core.CategoryIncomeSalary, 2024, 6, 1, "Salary"))
	mustCreate(t, s, newTx(-30000, core.CategoryFoodDining, 2024, 6, 2, "Groceries"))
	mustCreate(t, s, newTx(-10000, core.CategoryTransportation, 2024, 6, 3, "Fuel"))
	mustCreate(t, s, newTx(-60000, core.CategoryFoodDining, 2024, 5, 20, "Party"))

	d, err := s.Dashboard(ctx, analytics.MonthRange(2024, 6), analytics.RecentTransactionsLimit)
	require.NoError(t, err)

	assert.Equal(t, int64(500000), d.MonthlySummary.TotalIncome.Cents)
	assert.Equal(t, int64(40000), d.MonthlySummary.TotalExpenses.Cents)
	assert.Equal(t, int64(460000), d.MonthlySummary.Net.Cents)

	require.Len(t, d.CategoryBreakdown, 2)
	assert.Equal(t, core.CategoryFoodDining, d.CategoryBreakdown[0].Category)
	assert.Equal(t, int64(30000), d.CategoryBreakdown[0].Total.Cents)
	require.NotNil(t, d.CategoryBreakdown[0].Percentage)
	assert.InDelta(t, 75.0, *d.CategoryBreakdown[0].Percentage, 0.001)
	assert.InDelta(t, 25.0, *d.CategoryBreakdown[1].Percentage, 0.001)

	require.Len(t, d.MonthlyChartData, 1)
	assert.Equal(t, "2024-06", d.MonthlyChartData[0].Month)

	require.Len(t, d.RecentTransactions, 4, "recent transactions ignore the range")
	assert.Equal(t, "Fuel", d.RecentTransactions[0].Description)
	assert.Equal(t, "Party", d.RecentTransactions[3].Description)

	d, err = s.Dashboard(ctx, analytics.DateRange{From: core.NewDate(2024, 5, 1), To: core.NewDate(2024, 6, 30)}, 2)
	require.NoError(t, err)
	assert.Len(t, d.RecentTransactions, 2)
	assert.Len(t, d.MonthlyChartData, 2)
	assert.Equal(t, "2024-05", d.MonthlyChartData[0].Month)
}

func testStats(t *testing.T, s storage.Store) {
	ctx := context.Background()
	mustCreate(t, s, newTx(-100, core.CategoryOther, 2024, 6, 1, "One"))
	_, _, err := s.UpsertBudget(ctx, core.Budget{Category: core.CategoryOther, Amount: core.Money{Cents: 100}, Month: 6, Year: 2024})
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.Stats{Transactions: 1, Budgets: 1}, stats)
	assert.NoError(t, s.Ping(ctx))
}
