// Package analytics turns transaction and budget snapshots into derived
// views: budget-vs-actual summaries, insights, and monthly or per-category
// aggregations. Every function is pure; the current time is always passed
// in explicitly.
package analytics

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// OnTrackThreshold is the percentage at which a budget that is not yet
// exceeded counts as on-track rather than under.
const OnTrackThreshold = 90

// CalculateBudgetVsActual returns one summary per budget, in input order.
// Transactions are expected to cover the budgets' period already.
func CalculateBudgetVsActual(budgets []core.Budget, txs []core.Transaction) []core.BudgetSummary {
	spend := SpendByCategory(txs)

	summaries := make([]core.BudgetSummary, 0, len(budgets))
	for _, b := range budgets {
		spent := spend[b.Category]
		pct := Percentage(spent, b.Amount)
		summaries = append(summaries, core.BudgetSummary{
			Budget:     b,
			Spent:      spent,
			Remaining:  b.Amount.Sub(spent),
			Percentage: pct,
			Status:     Status(spent, b.Amount, pct),
		})
	}
	return summaries
}

// SpendByCategory sums the absolute value of expense transactions per category.
func SpendByCategory(txs []core.Transaction) map[core.Category]core.Money {
	spend := make(map[core.Category]core.Money)
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		spend[tx.Category] = spend[tx.Category].Add(tx.Amount.Abs())
	}
	return spend
}

// Percentage returns round(part / whole * 100), or 0 when whole is zero.
// Rounding is half away from zero on the exact decimal quotient.
func Percentage(part, whole core.Money) int64 {
	if whole.Cents == 0 {
		return 0
	}
	return decimal.NewFromInt(part.Cents).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(whole.Cents)).
		Round(0).
		IntPart()
}

// Status classifies spending. The order of the checks matters: a zero
// budget with any spend is over, never divided by.
func Status(spent, amount core.Money, percentage int64) core.BudgetStatus {
	switch {
	case spent.Cents <= 0:
		return core.StatusNotStarted
	case spent.Cents > amount.Cents:
		return core.StatusOver
	case percentage >= OnTrackThreshold:
		return core.StatusOnTrack
	default:
		return core.StatusUnder
	}
}
