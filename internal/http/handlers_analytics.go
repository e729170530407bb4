package http

import (
	"net/http"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

type dashboardResponse struct {
	Period analytics.Period    `json:"period"`
	Range  analytics.DateRange `json:"range"`
	core.Dashboard
}

// handleAnalytics returns budget-vs-actual summaries and insights for an
// explicit month and year.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	params, err := RequireMonthParams(r.URL.Query())
	if err != nil {
		BadRequestError("Month and year are required.").Write(w)
		return
	}

	result, err := s.analytics.Month(r.Context(), params.Month, params.Year)
	if err != nil {
		s.writeServiceError(w, r, err, "Analytics", log.OpRead)
		return
	}
	if result.BudgetSummaries == nil {
		result.BudgetSummaries = []core.BudgetSummary{}
	}
	if result.Insights == nil {
		result.Insights = []core.Insight{}
	}
	Success(result).Write(w)
}

// handleDashboard aggregates the transactions of a named period relative
// to the server clock.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := analytics.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	d, rng, err := s.analytics.Dashboard(r.Context(), period, s.now())
	if err != nil {
		s.writeServiceError(w, r, err, "Dashboard", log.OpRead)
		return
	}
	if d.CategoryBreakdown == nil {
		d.CategoryBreakdown = []core.CategoryAggregation{}
	}
	if d.MonthlyChartData == nil {
		d.MonthlyChartData = []core.MonthlyAggregation{}
	}
	if d.RecentTransactions == nil {
		d.RecentTransactions = []core.Transaction{}
	}
	Success(dashboardResponse{Period: period, Range: rng, Dashboard: d}).Write(w)
}
