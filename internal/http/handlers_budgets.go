package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// handleListBudgets lists one month's budgets, by default the current one.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		ValidationError(err).Write(w)
		return
	}

	budgets, err := s.budgets.List(r.Context(), params.Month, params.Year)
	if err != nil {
		s.writeServiceError(w, r, err, "Budgets", log.OpList)
		return
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	Success(budgets).Message("Budgets retrieved successfully").Write(w)
}

// handleUpsertBudget creates the (category, month, year) budget or replaces
// its amount.
func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if !parseBody(w, p) {
		return
	}

	p.Require("category", "amount", "month", "year")
	var b core.Budget
	if v := p.Category("category"); v != nil {
		b.Category = *v
	}
	if v := p.Money("amount"); v != nil {
		b.Amount = *v
	}
	if v := p.Int("month"); v != nil {
		b.Month = *v
	}
	if v := p.Int("year"); v != nil {
		b.Year = *v
	}
	if err := p.Errors(); err != nil {
		ValidationError(err).Write(w)
		return
	}

	saved, created, err := s.budgets.Upsert(r.Context(), b)
	if err != nil {
		s.writeServiceError(w, r, err, "Budget", log.OpUpsert)
		return
	}

	if created {
		Created(saved).Message("Budget created successfully").Write(w)
		return
	}
	Success(saved).Message("Budget updated successfully").Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(chi.URLParam(r, "id"))
	if !ok {
		InvalidIDError("Invalid budget ID format").Write(w)
		return
	}

	if _, err := s.budgets.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, "Budget", log.OpDelete)
		return
	}
	Success(nil).Message("Budget deleted successfully").Write(w)
}
