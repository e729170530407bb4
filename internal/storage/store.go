package storage

import (
	"context"

	"fintrack/internal/core"
)

// Store is a complete backend.
type Store interface {
	TransactionStore
	BudgetStore
	DashboardReader
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats is reported by the health endpoint.
type Stats struct {
	Transactions int64 `json:"transactions"`
	Budgets      int64 `json:"budgets"`
}

type (
	SortField string
	SortOrder string
)

const (
	SortByDate      SortField = "date"
	SortByAmount    SortField = "amount"
	SortByCreatedAt SortField = "createdAt"

	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"

	DefaultLimit = 50
	MaxLimit     = 100
)

// TransactionFilter selects, orders and pages transactions. Nil bounds are
// open; amount bounds compare the signed amount.
type TransactionFilter struct {
	Limit     int
	Skip      int
	SortBy    SortField
	SortOrder SortOrder
	DateFrom  *core.Date
	DateTo    *core.Date
	MinAmount *core.Money
	MaxAmount *core.Money
	Category  *core.Category
}

// TransactionPage is one page of a listing plus the unpaged match count.
type TransactionPage struct {
	Items []core.Transaction
	Total int64
}

// HasMore reports whether rows exist past this page.
func (p TransactionPage) HasMore(f TransactionFilter) bool {
	return int64(f.Skip+len(p.Items)) < p.Total
}

// WithDefaults fills unset paging and sorting fields.
func (f TransactionFilter) WithDefaults() TransactionFilter {
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.SortBy == "" {
		f.SortBy = SortByDate
	}
	if f.SortOrder == "" {
		f.SortOrder = SortDesc
	}
	return f
}

func (f TransactionFilter) Validate() error {
	var errs core.ValidationErrors
	if f.Limit < 1 || f.Limit > MaxLimit {
		errs = errs.AddMessage("limit", "must be between 1 and 100")
	}
	if f.Skip < 0 {
		errs = errs.AddMessage("skip", "must be zero or greater")
	}
	switch f.SortBy {
	case SortByDate, SortByAmount, SortByCreatedAt:
	default:
		errs = errs.AddMessage("sortBy", "must be one of date, amount, createdAt")
	}
	switch f.SortOrder {
	case SortAsc, SortDesc:
	default:
		errs = errs.AddMessage("sortOrder", "must be asc or desc")
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		errs = errs.AddMessage("dateFrom", "must not be after dateTo")
	}
	if f.MinAmount != nil && f.MaxAmount != nil && f.MinAmount.Cents > f.MaxAmount.Cents {
		errs = errs.AddMessage("minAmount", "must not be greater than maxAmount")
	}
	return errs.OrNil()
}
