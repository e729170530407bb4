package sheets

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// MonthReport is the budget report of one month as exported to a
// spreadsheet.
type MonthReport struct {
	Month       core.YearMonth
	Summaries   []core.BudgetSummary
	Insights    []core.Insight
	GeneratedAt time.Time
}

// ReportWriter exports month reports. Writing a month again replaces the
// previous report for that month.
type ReportWriter interface {
	WriteMonthReport(ctx context.Context, r MonthReport) error
}

// SheetName is the tab a month report is written to, e.g. "2024-06 Budget".
func SheetName(month core.YearMonth) string {
	return month.String() + " Budget"
}
