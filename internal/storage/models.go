package storage

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// timestampLayout is fixed-width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

type TransactionRow struct {
	ID          string
	AmountCents int64
	Date        string
	Description string
	Category    string
	CreatedAt   string
	UpdatedAt   string
}

type BudgetRow struct {
	ID          string
	Category    string
	AmountCents int64
	Month       int64
	Year        int64
	CreatedAt   string
	UpdatedAt   string
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}

func transactionRowFrom(t core.Transaction) TransactionRow {
	return TransactionRow{
		ID:          t.ID,
		AmountCents: t.Amount.Cents,
		Date:        t.Date.String(),
		Description: t.Description,
		Category:    t.Category.String(),
		CreatedAt:   formatTimestamp(t.CreatedAt),
		UpdatedAt:   formatTimestamp(t.UpdatedAt),
	}
}

func (r TransactionRow) toCore() (core.Transaction, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", r.ID, err)
	}
	cat, err := core.ParseCategory(r.Category)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", r.ID, err)
	}
	created, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s created_at: %w", r.ID, err)
	}
	updated, err := parseTimestamp(r.UpdatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s updated_at: %w", r.ID, err)
	}
	return core.Transaction{
		ID:          r.ID,
		Amount:      core.Money{Cents: r.AmountCents},
		Date:        date,
		Description: r.Description,
		Category:    cat,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

func (r BudgetRow) toCore() (core.Budget, error) {
	cat, err := core.ParseCategory(r.Category)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget %s: %w", r.ID, err)
	}
	created, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget %s created_at: %w", r.ID, err)
	}
	updated, err := parseTimestamp(r.UpdatedAt)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget %s updated_at: %w", r.ID, err)
	}
	return core.Budget{
		ID:        r.ID,
		Category:  cat,
		Amount:    core.Money{Cents: r.AmountCents},
		Month:     int(r.Month),
		Year:      int(r.Year),
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func transactionsFromRows(rows []TransactionRow) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		t, err := r.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
