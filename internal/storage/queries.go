package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the SQL of the SQLite backend.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const transactionColumns = `id, amount_cents, date, description, category, created_at, updated_at`

func scanTransaction(s interface{ Scan(...any) error }) (TransactionRow, error) {
	var r TransactionRow
	err := s.Scan(&r.ID, &r.AmountCents, &r.Date, &r.Description, &r.Category, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func collectTransactions(rows *sql.Rows) ([]TransactionRow, error) {
	defer rows.Close()
	var out []TransactionRow
	for rows.Next() {
		r, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const createTransaction = `INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

func (q *Queries) CreateTransaction(ctx context.Context, r TransactionRow) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		r.ID, r.AmountCents, r.Date, r.Description, r.Category, r.CreatedAt, r.UpdatedAt)
	return scanTransaction(row)
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (TransactionRow, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const updateTransaction = `UPDATE transactions
SET amount_cents = ?, date = ?, description = ?, category = ?, updated_at = ?
WHERE id = ?
RETURNING ` + transactionColumns

func (q *Queries) UpdateTransaction(ctx context.Context, r TransactionRow) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, updateTransaction,
		r.AmountCents, r.Date, r.Description, r.Category, r.UpdatedAt, r.ID)
	return scanTransaction(row)
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const transactionsInRange = `SELECT ` + transactionColumns + `
FROM transactions
WHERE date BETWEEN ? AND ?
ORDER BY date ASC, created_at ASC, rowid ASC`

func (q *Queries) TransactionsInRange(ctx context.Context, from, to string) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, transactionsInRange, from, to)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// transactionWhere renders the WHERE clause of a listing. Only bound
// parameters carry user input.
func transactionWhere(f TransactionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.DateFrom != nil {
		conds = append(conds, "date >= ?")
		args = append(args, f.DateFrom.String())
	}
	if f.DateTo != nil {
		conds = append(conds, "date <= ?")
		args = append(args, f.DateTo.String())
	}
	if f.MinAmount != nil {
		conds = append(conds, "amount_cents >= ?")
		args = append(args, f.MinAmount.Cents)
	}
	if f.MaxAmount != nil {
		conds = append(conds, "amount_cents <= ?")
		args = append(args, f.MaxAmount.Cents)
	}
	if f.Category != nil {
		conds = append(conds, "category = ?")
		args = append(args, f.Category.String())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var sortColumns = map[SortField]string{
	SortByDate:      "date",
	SortByAmount:    "amount_cents",
	SortByCreatedAt: "created_at",
}

func (q *Queries) ListTransactions(ctx context.Context, f TransactionFilter) ([]TransactionRow, error) {
	col, ok := sortColumns[f.SortBy]
	if !ok {
		return nil, fmt.Errorf("unsupported sort field %q", f.SortBy)
	}
	dir := "DESC"
	if f.SortOrder == SortAsc {
		dir = "ASC"
	}
	where, args := transactionWhere(f)
	query := fmt.Sprintf(`SELECT %s FROM transactions%s ORDER BY %s %s, created_at %s, id %s LIMIT ? OFFSET ?`,
		transactionColumns, where, col, dir, dir, dir)
	args = append(args, f.Limit, f.Skip)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

func (q *Queries) CountTransactions(ctx context.Context, f TransactionFilter) (int64, error) {
	where, args := transactionWhere(f)
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&n)
	return n, err
}

const budgetColumns = `id, category, amount_cents, month, year, created_at, updated_at`

func scanBudget(s interface{ Scan(...any) error }) (BudgetRow, error) {
	var r BudgetRow
	err := s.Scan(&r.ID, &r.Category, &r.AmountCents, &r.Month, &r.Year, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const listBudgets = `SELECT ` + budgetColumns + `
FROM budgets
WHERE month = ? AND year = ?
ORDER BY category ASC`

func (q *Queries) ListBudgets(ctx context.Context, month, year int) ([]BudgetRow, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets, month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BudgetRow
	for rows.Next() {
		r, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const getBudget = `SELECT ` + budgetColumns + ` FROM budgets WHERE id = ?`

func (q *Queries) GetBudget(ctx context.Context, id string) (BudgetRow, error) {
	return scanBudget(q.db.QueryRowContext(ctx, getBudget, id))
}

// The conflict target keeps the existing id and created_at, so a returned
// id that differs from the proposed one means the row was updated.
const upsertBudget = `INSERT INTO budgets (` + budgetColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (category, month, year) DO UPDATE SET
    amount_cents = excluded.amount_cents,
    updated_at = excluded.updated_at
RETURNING ` + budgetColumns

func (q *Queries) UpsertBudget(ctx context.Context, r BudgetRow) (BudgetRow, error) {
	row := q.db.QueryRowContext(ctx, upsertBudget,
		r.ID, r.Category, r.AmountCents, r.Month, r.Year, r.CreatedAt, r.UpdatedAt)
	return scanBudget(row)
}

const deleteBudget = `DELETE FROM budgets WHERE id = ?`

func (q *Queries) DeleteBudget(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteBudget, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const summaryInRange = `SELECT
    COALESCE(SUM(CASE WHEN amount_cents > 0 THEN amount_cents ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN amount_cents < 0 THEN -amount_cents ELSE 0 END), 0)
FROM transactions
WHERE date BETWEEN ? AND ?`

func (q *Queries) SummaryInRange(ctx context.Context, from, to string) (income, expenses int64, err error) {
	err = q.db.QueryRowContext(ctx, summaryInRange, from, to).Scan(&income, &expenses)
	return income, expenses, err
}

type CategoryTotalRow struct {
	Category   string
	TotalCents int64
}

const categoryTotalsInRange = `SELECT category, SUM(-amount_cents) AS total
FROM transactions
WHERE amount_cents < 0 AND date BETWEEN ? AND ?
GROUP BY category
ORDER BY total DESC, MIN(rowid) ASC`

func (q *Queries) CategoryTotalsInRange(ctx context.Context, from, to string) ([]CategoryTotalRow, error) {
	rows, err := q.db.QueryContext(ctx, categoryTotalsInRange, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategoryTotalRow
	for rows.Next() {
		var r CategoryTotalRow
		if err := rows.Scan(&r.Category, &r.TotalCents); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type MonthlyTotalRow struct {
	Month         string
	IncomeCents   int64
	ExpensesCents int64
}

const monthlyTotalsInRange = `SELECT
    substr(date, 1, 7) AS month,
    COALESCE(SUM(CASE WHEN amount_cents > 0 THEN amount_cents ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN amount_cents < 0 THEN -amount_cents ELSE 0 END), 0)
FROM transactions
WHERE date BETWEEN ? AND ?
GROUP BY month
ORDER BY month ASC`

func (q *Queries) MonthlyTotalsInRange(ctx context.Context, from, to string) ([]MonthlyTotalRow, error) {
	rows, err := q.db.QueryContext(ctx, monthlyTotalsInRange, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MonthlyTotalRow
	for rows.Next() {
		var r MonthlyTotalRow
		if err := rows.Scan(&r.Month, &r.IncomeCents, &r.ExpensesCents); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const recentTransactions = `SELECT ` + transactionColumns + `
FROM transactions
ORDER BY date DESC, created_at DESC
LIMIT ?`

func (q *Queries) RecentTransactions(ctx context.Context, limit int) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, recentTransactions, limit)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

func (q *Queries) CountAll(ctx context.Context) (transactions, budgets int64, err error) {
	err = q.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM transactions), (SELECT COUNT(*) FROM budgets)`).
		Scan(&transactions, &budgets)
	return transactions, budgets, err
}
