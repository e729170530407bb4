package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// MonthAnalytics is the budget report of one month.
type MonthAnalytics struct {
	Month           core.YearMonth       `json:"-"`
	BudgetSummaries []core.BudgetSummary `json:"budgetSummaries"`
	Insights        []core.Insight       `json:"insights"`
}

type AnalyticsService struct {
	transactions storage.TransactionStore
	budgets      storage.BudgetStore
	dashboards   storage.DashboardReader
}

func NewAnalyticsService(transactions storage.TransactionStore, budgets storage.BudgetStore, dashboards storage.DashboardReader) *AnalyticsService {
	return &AnalyticsService{
		transactions: transactions,
		budgets:      budgets,
		dashboards:   dashboards,
	}
}

// Month compares the month's budgets with the month's spending and derives
// insights from the result.
func (s *AnalyticsService) Month(ctx context.Context, month, year int) (MonthAnalytics, error) {
	if err := core.ValidatePeriod(month, year); err != nil {
		return MonthAnalytics{}, err
	}

	var (
		budgets []core.Budget
		txs     []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		budgets, err = s.budgets.ListBudgets(gctx, month, year)
		if err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		txs, err = s.transactions.TransactionsInRange(gctx, analytics.MonthRange(year, month))
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return MonthAnalytics{}, err
	}

	summaries := analytics.CalculateBudgetVsActual(budgets, txs)
	return MonthAnalytics{
		Month:           core.YearMonth{Year: year, Month: month},
		BudgetSummaries: summaries,
		Insights:        analytics.GenerateInsights(summaries, txs),
	}, nil
}

// Dashboard resolves period against now and returns the overview of that
// date range.
func (s *AnalyticsService) Dashboard(ctx context.Context, period analytics.Period, now time.Time) (core.Dashboard, analytics.DateRange, error) {
	rng := period.Range(now)
	d, err := s.dashboards.Dashboard(ctx, rng, analytics.RecentTransactionsLimit)
	if err != nil {
		return core.Dashboard{}, rng, fmt.Errorf("build dashboard: %w", err)
	}
	return d, rng, nil
}
