package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Skip    int   `json:"skip"`
	HasMore bool  `json:"hasMore"`
}

type transactionList struct {
	Transactions []core.Transaction `json:"transactions"`
	Pagination   pagination         `json:"pagination"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		ValidationError(err).Write(w)
		return
	}

	page, filter, err := s.transactions.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err, "Transactions", log.OpList)
		return
	}

	items := page.Items
	if items == nil {
		items = []core.Transaction{}
	}
	Success(transactionList{
		Transactions: items,
		Pagination: pagination{
			Total:   page.Total,
			Limit:   filter.Limit,
			Skip:    filter.Skip,
			HasMore: page.HasMore(filter),
		},
	}).Message("Transactions retrieved successfully").Write(w)
}

// handleCreateTransaction requires amount, date and description. A missing
// category files the transaction under Other.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if !parseBody(w, p) {
		return
	}

	p.Require("amount", "date", "description")
	t := core.Transaction{Category: core.CategoryOther}
	if v := p.Money("amount"); v != nil {
		t.Amount = *v
	}
	if v := p.Date("date"); v != nil {
		t.Date = *v
	}
	if v := p.String("description"); v != nil {
		t.Description = *v
	}
	if v := p.Category("category"); v != nil {
		t.Category = *v
	}
	if err := p.Errors(); err != nil {
		ValidationError(err).Write(w)
		return
	}

	saved, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		s.writeServiceError(w, r, err, "Transaction", log.OpCreate)
		return
	}
	s.created.Add(1)

	Created(saved).Message("Transaction created successfully").Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(chi.URLParam(r, "id"))
	if !ok {
		InvalidIDError("Invalid transaction ID format").Write(w)
		return
	}

	t, err := s.transactions.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "Transaction", log.OpRead)
		return
	}
	Success(t).Message("Transaction retrieved successfully").Write(w)
}

// handleUpdateTransaction applies the fields present in the body.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(chi.URLParam(r, "id"))
	if !ok {
		InvalidIDError("Invalid transaction ID format").Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if !parseBody(w, p) {
		return
	}
	patch := core.TransactionPatch{
		Amount:      p.Money("amount"),
		Date:        p.Date("date"),
		Description: p.String("description"),
		Category:    p.Category("category"),
	}
	if err := p.Errors(); err != nil {
		ValidationError(err).Write(w)
		return
	}

	updated, err := s.transactions.Update(r.Context(), id, patch)
	if err != nil {
		s.writeServiceError(w, r, err, "Transaction", log.OpUpdate)
		return
	}
	Success(updated).Message("Transaction updated successfully").Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(chi.URLParam(r, "id"))
	if !ok {
		InvalidIDError("Invalid transaction ID format").Write(w)
		return
	}

	if _, err := s.transactions.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, "Transaction", log.OpDelete)
		return
	}
	Success(map[string]any{"id": id, "deleted": true}).
		Message("Transaction deleted successfully").
		Write(w)
}

// parseBody writes the error response and returns false when the body is
// not a JSON object.
func parseBody(w http.ResponseWriter, p *RequestBodyParser) bool {
	err := p.Parse()
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrBodyTooLarge):
		ErrorResponse(http.StatusRequestEntityTooLarge, CodeBadRequest, "Request body too large").Write(w)
	default:
		BadRequestError("Invalid JSON in request body").Write(w)
	}
	return false
}
