package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/analytics"
	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ Store = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (creating if needed) the database at dbPath
// and migrates it to the latest schema.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Stats(ctx context.Context) (Stats, error) {
	txs, budgets, err := r.queries.CountAll(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count rows: %w", err)
	}
	return Stats{Transactions: txs, Budgets: budgets}, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := r.now()
	t.ID = uuid.NewString()
	t.CreatedAt, t.UpdatedAt = now, now

	row, err := r.queries.CreateTransaction(ctx, transactionRowFrom(t))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"amount_cents", row.AmountCents,
		"category", row.Category,
		"date", row.Date)

	return row.toCore()
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return row.toCore()
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f TransactionFilter) (TransactionPage, error) {
	f = f.WithDefaults()

	var (
		rows  []TransactionRow
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = r.queries.ListTransactions(gctx, f)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = r.queries.CountTransactions(gctx, f)
		if err != nil {
			return fmt.Errorf("count transactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return TransactionPage{}, err
	}

	items, err := transactionsFromRows(rows)
	if err != nil {
		return TransactionPage{}, err
	}
	return TransactionPage{Items: items, Total: total}, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, core.Transaction, error) {
	if p.IsEmpty() {
		return core.Transaction{}, core.Transaction{}, ErrEmptyPatch
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, core.Transaction{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	row, err := q.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	before, err := row.toCore()
	if err != nil {
		return core.Transaction{}, core.Transaction{}, err
	}

	after, changed := p.Apply(before)
	if !changed {
		return before, before, ErrNoChanges
	}
	after.UpdatedAt = r.now()

	updated, err := q.UpdateTransaction(ctx, transactionRowFrom(after))
	if err != nil {
		return core.Transaction{}, core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, core.Transaction{}, fmt.Errorf("commit update: %w", err)
	}

	after, err = updated.toCore()
	return before, after, err
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) (core.Transaction, error) {
	existing, err := r.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return existing, nil
}

func (r *SQLiteRepository) TransactionsInRange(ctx context.Context, rng analytics.DateRange) ([]core.Transaction, error) {
	rows, err := r.queries.TransactionsInRange(ctx, rng.From.String(), rng.To.String())
	if err != nil {
		return nil, fmt.Errorf("query transactions in range: %w", err)
	}
	return transactionsFromRows(rows)
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, month, year int) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx, month, year)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		b, err := row.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	row, err := r.queries.GetBudget(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return row.toCore()
}

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, bool, error) {
	now := formatTimestamp(r.now())
	proposed := BudgetRow{
		ID:          uuid.NewString(),
		Category:    b.Category.String(),
		AmountCents: b.Amount.Cents,
		Month:       int64(b.Month),
		Year:        int64(b.Year),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	row, err := r.queries.UpsertBudget(ctx, proposed)
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("upsert budget: %w", err)
	}
	saved, err := row.toCore()
	if err != nil {
		return core.Budget{}, false, err
	}
	return saved, row.ID == proposed.ID, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) (core.Budget, error) {
	existing, err := r.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, err
	}
	if _, err := r.queries.DeleteBudget(ctx, id); err != nil {
		return core.Budget{}, fmt.Errorf("delete budget: %w", err)
	}
	return existing, nil
}

// Dashboard runs the four dashboard aggregations concurrently.
func (r *SQLiteRepository) Dashboard(ctx context.Context, rng analytics.DateRange, recentN int) (core.Dashboard, error) {
	from, to := rng.From.String(), rng.To.String()

	var (
		income, expenses int64
		catRows          []CategoryTotalRow
		monthRows        []MonthlyTotalRow
		recentRows       []TransactionRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		income, expenses, err = r.queries.SummaryInRange(gctx, from, to)
		return wrapErr("summary", err)
	})
	g.Go(func() (err error) {
		catRows, err = r.queries.CategoryTotalsInRange(gctx, from, to)
		return wrapErr("category totals", err)
	})
	g.Go(func() (err error) {
		monthRows, err = r.queries.MonthlyTotalsInRange(gctx, from, to)
		return wrapErr("monthly totals", err)
	})
	g.Go(func() (err error) {
		recentRows, err = r.queries.RecentTransactions(gctx, recentN)
		return wrapErr("recent transactions", err)
	})
	if err := g.Wait(); err != nil {
		return core.Dashboard{}, err
	}

	summary := core.MonthlySummary{
		TotalIncome:   core.Money{Cents: income},
		TotalExpenses: core.Money{Cents: expenses},
		Net:           core.Money{Cents: income - expenses},
	}

	aggs := make([]core.CategoryAggregation, 0, len(catRows))
	for _, row := range catRows {
		cat, err := core.ParseCategory(row.Category)
		if err != nil {
			return core.Dashboard{}, fmt.Errorf("category totals: %w", err)
		}
		aggs = append(aggs, core.CategoryAggregation{Category: cat, Total: core.Money{Cents: row.TotalCents}})
	}

	months := make([]core.MonthlyAggregation, 0, len(monthRows))
	for _, row := range monthRows {
		months = append(months, core.MonthlyAggregation{
			Month:    row.Month,
			Income:   core.Money{Cents: row.IncomeCents},
			Expenses: core.Money{Cents: row.ExpensesCents},
		})
	}

	recent, err := transactionsFromRows(recentRows)
	if err != nil {
		return core.Dashboard{}, err
	}

	return core.Dashboard{
		MonthlySummary:     summary,
		CategoryBreakdown:  analytics.CategoryBreakdown(aggs, summary.TotalExpenses),
		MonthlyChartData:   months,
		RecentTransactions: recent,
	}, nil
}

func wrapErr(op string, err error) error {
	if err != nil {
		return fmt.Errorf("query %s: %w", op, err)
	}
	return nil
}
