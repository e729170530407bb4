package analytics

import (
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestPeriodRange(t *testing.T) {
	tests := []struct {
		period   Period
		now      time.Time
		from, to string
	}{
		{ThisMonth, time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC), "2024-02-01", "2024-02-29"},
		{LastMonth, time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC), "2024-02-01", "2024-02-29"},
		{LastMonth, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "2023-12-01", "2023-12-31"},
		{LastQuarter, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), "2024-04-01", "2024-06-30"},
		{LastQuarter, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "2023-12-01", "2024-02-29"},
	}

	for _, tt := range tests {
		t.Run(string(tt.period)+"_"+tt.now.Format("2006-01-02"), func(t *testing.T) {
			rng := tt.period.Range(tt.now)
			if rng.From.String() != tt.from || rng.To.String() != tt.to {
				t.Errorf("Range() = %s..%s, want %s..%s", rng.From, rng.To, tt.from, tt.to)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]Period{
		"":              ThisMonth,
		"this_month":    ThisMonth,
		"last_month":    LastMonth,
		"last_3_months": LastQuarter,
	} {
		got, err := ParsePeriod(in)
		if err != nil || got != want {
			t.Errorf("ParsePeriod(%q) = %v, %v; want %v", in, got, err, want)
		}
	}

	if _, err := ParsePeriod("last_year"); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestMonthRangeAndFilter(t *testing.T) {
	rng := MonthRange(2024, 6)
	if rng.From.String() != "2024-06-01" || rng.To.String() != "2024-06-30" {
		t.Fatalf("MonthRange = %s..%s", rng.From, rng.To)
	}

	txs := []core.Transaction{
		tx(-1, core.CategoryOther, 2024, 5, 31),
		tx(-2, core.CategoryOther, 2024, 6, 1),
		tx(-3, core.CategoryOther, 2024, 6, 30),
		tx(-4, core.CategoryOther, 2024, 7, 1),
	}
	got := FilterRange(txs, rng)
	if len(got) != 2 || got[0].Amount.Cents != -2 || got[1].Amount.Cents != -3 {
		t.Fatalf("FilterRange = %+v", got)
	}
}
