package analytics

import (
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// Period names a dashboard reporting window relative to now.
type Period string

const (
	ThisMonth    Period = "this_month"
	LastMonth    Period = "last_month"
	LastQuarter  Period = "last_3_months"
	DefaultPeriod       = ThisMonth
)

var ErrInvalidPeriod = errors.New("invalid period")

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	From core.Date `json:"from"`
	To   core.Date `json:"to"`
}

// Contains reports whether d lies within the range, bounds included.
func (r DateRange) Contains(d core.Date) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

// ParsePeriod validates a period name. The empty string selects DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return DefaultPeriod, nil
	case ThisMonth, LastMonth, LastQuarter:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q (expected this_month, last_month or last_3_months)", ErrInvalidPeriod, s)
}

// Range maps the period to calendar days using now's year and month.
// last_3_months spans the month two months back through the current one.
func (p Period) Range(now time.Time) DateRange {
	year, month := now.Year(), int(now.Month())
	switch p {
	case LastMonth:
		return DateRange{From: firstOfMonth(year, month-1), To: lastOfMonth(year, month-1)}
	case LastQuarter:
		return DateRange{From: firstOfMonth(year, month-2), To: lastOfMonth(year, month)}
	default:
		return MonthRange(year, month)
	}
}

// MonthRange returns the first through last calendar day of a month.
func MonthRange(year, month int) DateRange {
	return DateRange{From: firstOfMonth(year, month), To: lastOfMonth(year, month)}
}

// FilterRange keeps the transactions dated inside rng, preserving order.
func FilterRange(txs []core.Transaction, rng DateRange) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if rng.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out
}

// time.Date normalizes month 0 and -1 into the previous year.
func firstOfMonth(year, month int) core.Date {
	return core.NewDate(year, month, 1)
}

func lastOfMonth(year, month int) core.Date {
	return core.NewDate(year, month+1, 0)
}
