package analytics

import (
	"sort"
	"time"

	"fintrack/internal/core"
)

// RecentTransactionsLimit is the number of transactions a dashboard lists.
const RecentTransactionsLimit = 5

// AggregateByMonth groups transactions by "YYYY-MM" and returns the
// groups in ascending order.
func AggregateByMonth(txs []core.Transaction) []core.MonthlyAggregation {
	byMonth := make(map[string]*core.MonthlyAggregation)
	for _, tx := range txs {
		key := tx.Date.MonthKey()
		agg, ok := byMonth[key]
		if !ok {
			agg = &core.MonthlyAggregation{Month: key}
			byMonth[key] = agg
		}
		switch {
		case tx.IsIncome():
			agg.Income = agg.Income.Add(tx.Amount)
		case tx.IsExpense():
			agg.Expenses = agg.Expenses.Add(tx.Amount.Abs())
		}
	}

	out := make([]core.MonthlyAggregation, 0, len(byMonth))
	for _, agg := range byMonth {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// AggregateByCategory totals expenses per category, largest first. Equal
// totals keep the order in which their categories first appeared.
func AggregateByCategory(txs []core.Transaction) []core.CategoryAggregation {
	var expenses []core.Transaction
	for _, tx := range txs {
		if tx.IsExpense() {
			expenses = append(expenses, tx)
		}
	}
	out := groupExpenses(expenses)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total.Cents > out[j].Total.Cents })
	return out
}

// groupExpenses sums |amount| per category in first-seen order.
func groupExpenses(expenses []core.Transaction) []core.CategoryAggregation {
	index := make(map[core.Category]int)
	out := make([]core.CategoryAggregation, 0)
	for _, tx := range expenses {
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, core.CategoryAggregation{Category: tx.Category})
		}
		out[i].Total = out[i].Total.Add(tx.Amount.Abs())
	}
	return out
}

// Summarize reduces transactions to income, expenses and net.
func Summarize(txs []core.Transaction) core.MonthlySummary {
	var s core.MonthlySummary
	for _, tx := range txs {
		switch {
		case tx.IsIncome():
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		case tx.IsExpense():
			s.TotalExpenses = s.TotalExpenses.Add(tx.Amount.Abs())
		}
	}
	s.Net = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}

// SummarizeMonth summarizes the transactions dated in the calendar month
// that contains now.
func SummarizeMonth(txs []core.Transaction, now time.Time) core.MonthlySummary {
	return Summarize(FilterRange(txs, ThisMonth.Range(now)))
}

// CategoryBreakdown annotates each aggregation with its share of
// totalExpenses as an unrounded percentage. A zero total divides by one so
// every share is zero.
func CategoryBreakdown(aggs []core.CategoryAggregation, totalExpenses core.Money) []core.CategoryAggregation {
	divisor := totalExpenses.Cents
	if divisor == 0 {
		divisor = 1
	}
	out := make([]core.CategoryAggregation, len(aggs))
	for i, agg := range aggs {
		pct := float64(agg.Total.Cents) / float64(divisor) * 100
		agg.Percentage = &pct
		out[i] = agg
	}
	return out
}

// RecentTransactions returns the n most recent transactions by date, newest
// first. Same-day entries are ordered by creation time, newest first.
func RecentTransactions(txs []core.Transaction, n int) []core.Transaction {
	sorted := make([]core.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// BuildDashboard computes the summary, breakdown and chart sections from the
// transactions that fall inside rng. Recent transactions are the newest
// overall, whatever the range.
func BuildDashboard(txs []core.Transaction, rng DateRange, recentN int) core.Dashboard {
	inRange := FilterRange(txs, rng)
	summary := Summarize(inRange)
	return core.Dashboard{
		MonthlySummary:     summary,
		CategoryBreakdown:  CategoryBreakdown(AggregateByCategory(inRange), summary.TotalExpenses),
		MonthlyChartData:   AggregateByMonth(inRange),
		RecentTransactions: RecentTransactions(txs, recentN),
	}
}
