package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestGenerateInsights_OverBudgetScenario(t *testing.T) {
	budgets := []core.Budget{budget(core.CategoryFoodDining, 20000)}
	txs := []core.Transaction{tx(-22000, core.CategoryFoodDining, 2024, 6, 10)}

	insights := GenerateInsights(CalculateBudgetVsActual(budgets, txs), txs)

	require.Len(t, insights, 3)

	warn := insights[0]
	assert.Equal(t, core.InsightWarning, warn.Type)
	assert.Equal(t, "Food & Dining Over Budget", warn.Title)
	assert.Equal(t, "You have overspent by 20.00 in the Food & Dining category.", warn.Description)
	require.NotNil(t, warn.Value)
	assert.Equal(t, -20.0, *warn.Value)
	require.NotNil(t, warn.Category)
	assert.Equal(t, core.CategoryFoodDining, *warn.Category)

	assert.Equal(t, "Highest Spending Category", insights[1].Title)
	assert.Equal(t, "Your highest spending was in the Food & Dining category, with a total of 220.00 spent.", insights[1].Description)

	assert.Equal(t, "Overall Budget Utilization", insights[2].Title)
	assert.Equal(t, "You have used 110% of your total budget for the month.", insights[2].Description)
	assert.Equal(t, 110.0, *insights[2].Value)
	assert.Nil(t, insights[2].Category)
}

func TestGenerateInsights_FixedOrder(t *testing.T) {
	budgets := []core.Budget{
		budget(core.CategoryShopping, 10000),      // under with activity
		budget(core.CategoryFoodDining, 5000),     // over
		budget(core.CategoryEntertainment, 3000),  // not started
		budget(core.CategoryTransportation, 1000), // over, bigger spend
	}
	txs := []core.Transaction{
		tx(-2000, core.CategoryShopping, 2024, 6, 1),
		tx(-6000, core.CategoryFoodDining, 2024, 6, 2),
		tx(-1500, core.CategoryHealthcare, 2024, 6, 3), // unbudgeted, seen first
		tx(-9000, core.CategoryTransportation, 2024, 6, 4),
		tx(-500, core.CategoryOther, 2024, 6, 5), // unbudgeted
		tx(-500, core.CategoryHealthcare, 2024, 6, 6),
		tx(300000, core.CategoryIncomeSalary, 2024, 6, 1), // income never unbudgeted
	}

	insights := GenerateInsights(CalculateBudgetVsActual(budgets, txs), txs)

	titles := make([]string, len(insights))
	for i, in := range insights {
		titles[i] = in.Title
	}
	assert.Equal(t, []string{
		"Food & Dining Over Budget",
		"Transportation Over Budget",
		"Good Job on Shopping!",
		"Highest Spending Category",
		"Overall Budget Utilization",
		"Unbudgeted Spending",
		"Unbudgeted Spending",
	}, titles)

	assert.Equal(t, "You are under budget by 80.00 for Shopping. Keep it up!", insights[2].Description)
	assert.Equal(t, core.CategoryTransportation, *insights[3].Category)
	// (20 + 60 + 0 + 90) / (100 + 50 + 30 + 10) = 89.47 -> 89
	assert.Equal(t, "You have used 89% of your total budget for the month.", insights[4].Description)
	assert.Equal(t, "You spent 20.00 on Healthcare, which is not budgeted. Consider setting a budget for it.", insights[5].Description)
	assert.Equal(t, core.CategoryOther, *insights[6].Category)
}

func TestGenerateInsights_HighestSpendingTieKeepsFirst(t *testing.T) {
	budgets := []core.Budget{budget(core.CategoryEducation, 10000), budget(core.CategoryShopping, 10000)}
	txs := []core.Transaction{
		tx(-3000, core.CategoryShopping, 2024, 6, 1),
		tx(-3000, core.CategoryEducation, 2024, 6, 2),
	}
	insights := GenerateInsights(CalculateBudgetVsActual(budgets, txs), txs)

	var highest *core.Insight
	for i := range insights {
		if insights[i].Title == "Highest Spending Category" {
			highest = &insights[i]
		}
	}
	require.NotNil(t, highest)
	assert.Equal(t, core.CategoryEducation, *highest.Category)
}

func TestGenerateInsights_DegenerateInputs(t *testing.T) {
	assert.Empty(t, GenerateInsights(nil, nil))

	// Only unbudgeted spending: no highest, no utilization.
	txs := []core.Transaction{tx(-100, core.CategoryOther, 2024, 6, 1)}
	insights := GenerateInsights(nil, txs)
	require.Len(t, insights, 1)
	assert.Equal(t, "Unbudgeted Spending", insights[0].Title)

	// Zero total budget suppresses the utilization insight.
	zero := []core.Budget{budget(core.CategoryOther, 0)}
	insights = GenerateInsights(CalculateBudgetVsActual(zero, nil), nil)
	for _, in := range insights {
		assert.NotEqual(t, "Overall Budget Utilization", in.Title)
	}
}

func TestGenerateInsights_OneWarningPerOverBudget(t *testing.T) {
	budgets := []core.Budget{
		budget(core.CategoryFoodDining, 100),
		budget(core.CategoryShopping, 100),
		budget(core.CategoryOther, 100),
	}
	txs := []core.Transaction{
		tx(-200, core.CategoryFoodDining, 2024, 6, 1),
		tx(-50, core.CategoryShopping, 2024, 6, 1),
		tx(-300, core.CategoryOther, 2024, 6, 1),
	}
	warnings := 0
	for _, in := range GenerateInsights(CalculateBudgetVsActual(budgets, txs), txs) {
		if in.Type == core.InsightWarning {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestGenerateInsights_Idempotent(t *testing.T) {
	budgets := []core.Budget{budget(core.CategoryFoodDining, 5000), budget(core.CategoryShopping, 5000)}
	txs := []core.Transaction{
		tx(-7000, core.CategoryFoodDining, 2024, 6, 1),
		tx(-100, core.CategoryHealthcare, 2024, 6, 1),
		tx(-100, core.CategoryEducation, 2024, 6, 1),
		tx(-100, core.CategoryOther, 2024, 6, 1),
	}
	first, err := json.Marshal(GenerateInsights(CalculateBudgetVsActual(budgets, txs), txs))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := json.Marshal(GenerateInsights(CalculateBudgetVsActual(budgets, txs), txs))
		require.NoError(t, err)
		require.Equal(t, string(first), string(again))
	}
}
