package analytics

import (
	"fmt"

	"fintrack/internal/core"
)

// GenerateInsights derives observations from a month of summaries and the
// transactions behind them. Output order is fixed: over-budget warnings,
// under-budget successes, the highest-spending category, overall
// utilization, then unbudgeted spending. The list is never truncated.
func GenerateInsights(summaries []core.BudgetSummary, txs []core.Transaction) []core.Insight {
	insights := make([]core.Insight, 0)

	for _, s := range summaries {
		if s.Status != core.StatusOver {
			continue
		}
		insights = append(insights, core.Insight{
			Type:        core.InsightWarning,
			Title:       fmt.Sprintf("%s Over Budget", s.Category),
			Description: fmt.Sprintf("You have overspent by %s in the %s category.", s.Remaining.Abs(), s.Category),
			Value:       moneyValue(s.Remaining),
			Category:    categoryRef(s.Category),
		})
	}

	for _, s := range summaries {
		if s.Remaining.Cents <= 0 || s.Spent.Cents <= 0 {
			continue
		}
		insights = append(insights, core.Insight{
			Type:        core.InsightSuccess,
			Title:       fmt.Sprintf("Good Job on %s!", s.Category),
			Description: fmt.Sprintf("You are under budget by %s for %s. Keep it up!", s.Remaining, s.Category),
			Value:       moneyValue(s.Remaining),
			Category:    categoryRef(s.Category),
		})
	}

	if len(summaries) > 0 {
		top := summaries[0]
		for _, s := range summaries[1:] {
			if s.Spent.Cents > top.Spent.Cents {
				top = s
			}
		}
		insights = append(insights, core.Insight{
			Type:        core.InsightInfo,
			Title:       "Highest Spending Category",
			Description: fmt.Sprintf("Your highest spending was in the %s category, with a total of %s spent.", top.Category, top.Spent),
			Value:       moneyValue(top.Spent),
			Category:    categoryRef(top.Category),
		})
	}

	var totalBudgeted, totalSpent core.Money
	for _, s := range summaries {
		totalBudgeted = totalBudgeted.Add(s.Amount)
		totalSpent = totalSpent.Add(s.Spent)
	}
	if totalBudgeted.Cents > 0 {
		utilization := Percentage(totalSpent, totalBudgeted)
		v := float64(utilization)
		insights = append(insights, core.Insight{
			Type:        core.InsightInfo,
			Title:       "Overall Budget Utilization",
			Description: fmt.Sprintf("You have used %d%% of your total budget for the month.", utilization),
			Value:       &v,
		})
	}

	for _, u := range UnbudgetedSpending(summaries, txs) {
		insights = append(insights, core.Insight{
			Type:        core.InsightInfo,
			Title:       "Unbudgeted Spending",
			Description: fmt.Sprintf("You spent %s on %s, which is not budgeted. Consider setting a budget for it.", u.Total, u.Category),
			Value:       moneyValue(u.Total),
			Category:    categoryRef(u.Category),
		})
	}

	return insights
}

// UnbudgetedSpending totals expenses in categories that have no summary,
// in the order each category first appears among the transactions.
func UnbudgetedSpending(summaries []core.BudgetSummary, txs []core.Transaction) []core.CategoryAggregation {
	budgeted := make(map[core.Category]bool, len(summaries))
	for _, s := range summaries {
		budgeted[s.Category] = true
	}

	var unbudgeted []core.Transaction
	for _, tx := range txs {
		if tx.IsExpense() && !budgeted[tx.Category] {
			unbudgeted = append(unbudgeted, tx)
		}
	}
	return groupExpenses(unbudgeted)
}

func moneyValue(m core.Money) *float64 {
	v := m.Float64()
	return &v
}

func categoryRef(c core.Category) *core.Category {
	return &c
}
