// Package core provides money parsing and handling utilities.
//
// Amounts are kept as signed integer cents. On the wire they travel as
// decimal numbers in base units (12.5 means 1250 cents).
package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a signed amount in cents.
type Money struct {
	Cents int64
}

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// NewMoneyFromDecimal converts a base-unit decimal to cents, rounding half
// away from zero on the third decimal place. Amounts that do not fit in
// int64 cents are rejected with ErrInvalidAmount.
func NewMoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Mul(hundred).Round(0)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return Money{}, fmt.Errorf("%w: %s out of range", ErrInvalidAmount, d.String())
	}
	return Money{Cents: cents.IntPart()}, nil
}

// ParseMoney parses a decimal string such as "12.34", "-12,34" or "7".
// Both dot and comma decimal separators are accepted.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234
//	ParseMoney("-12,34") -> -1234
//	ParseMoney("12.345") -> 1235 (half away from zero)
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return NewMoneyFromDecimal(d)
}

// Decimal returns the amount in base units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Abs returns the absolute amount.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsPositive() bool { return m.Cents > 0 }
func (m Money) IsNegative() bool { return m.Cents < 0 }

// String formats the amount with exactly two decimals, e.g. "-20.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Float64 is for presentation only; arithmetic stays in cents.
func (m Money) Float64() float64 {
	return m.Decimal().InexactFloat64()
}

// Validate checks that the amount is strictly positive (budget limits).
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON writes the amount as a bare JSON number in base units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		return fmt.Errorf("%w: missing value", ErrInvalidAmount)
	}
	raw = strings.Trim(raw, `"`)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	money, err := NewMoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = money
	return nil
}
