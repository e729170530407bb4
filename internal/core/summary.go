package core

// BudgetStatus classifies spending against a budget.
type BudgetStatus string

const (
	StatusNotStarted BudgetStatus = "not-started"
	StatusUnder      BudgetStatus = "under"
	StatusOnTrack    BudgetStatus = "on-track"
	StatusOver       BudgetStatus = "over"
)

// InsightType is the tone of an insight.
type InsightType string

const (
	InsightWarning InsightType = "warning"
	InsightSuccess InsightType = "success"
	InsightInfo    InsightType = "info"
)

type (
	// BudgetSummary is a budget joined with the spend of its period. It is
	// derived per request and never stored.
	BudgetSummary struct {
		Budget
		Spent      Money        `json:"spent"`
		Remaining  Money        `json:"remaining"`
		Percentage int64        `json:"percentage"`
		Status     BudgetStatus `json:"status"`
	}

	// Insight is a short observation about a month of spending.
	Insight struct {
		Type        InsightType `json:"type"`
		Title       string      `json:"title"`
		Description string      `json:"description"`
		Value       *float64    `json:"value,omitempty"`
		Category    *Category   `json:"category,omitempty"`
	}

	// MonthlyAggregation holds income and expense totals for one "YYYY-MM".
	MonthlyAggregation struct {
		Month    string `json:"month"`
		Income   Money  `json:"income"`
		Expenses Money  `json:"expenses"`
	}

	// CategoryAggregation is the absolute expense total of one category.
	// Percentage is set only in dashboard breakdowns.
	CategoryAggregation struct {
		Category   Category `json:"category"`
		Total      Money    `json:"total"`
		Percentage *float64 `json:"percentage,omitempty"`
	}

	// MonthlySummary reduces a set of transactions to three totals.
	MonthlySummary struct {
		TotalIncome   Money `json:"totalIncome"`
		TotalExpenses Money `json:"totalExpenses"`
		Net           Money `json:"net"`
	}

	// Dashboard is everything the overview screen needs for one period.
	Dashboard struct {
		MonthlySummary     MonthlySummary        `json:"monthlySummary"`
		CategoryBreakdown  []CategoryAggregation `json:"categoryBreakdown"`
		MonthlyChartData   []MonthlyAggregation  `json:"monthlyChartData"`
		RecentTransactions []Transaction         `json:"recentTransactions"`
	}
)
