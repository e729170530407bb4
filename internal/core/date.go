package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-day wire and storage format.
const DateLayout = "2006-01-02"

// Date is a calendar day at midnight UTC.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day. Out-of-range values
// normalize the way time.Date does.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate accepts "2006-01-02" or a full RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t.UTC()), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) Day() int   { return d.Time.Day() }
func (d Date) Month() int { return int(d.Time.Month()) }
func (d Date) Year() int  { return d.Time.Year() }

// MonthKey returns the zero-padded "YYYY-MM" period key.
func (d Date) MonthKey() string {
	return d.Time.Format("2006-01")
}

// String returns the date in DateLayout.
func (d Date) String() string {
	return d.Time.Format(DateLayout)
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// Validate rejects the zero date.
func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: must be a string", ErrInvalidDate)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// YearMonth identifies a budget period.
type YearMonth struct {
	Year  int
	Month int
}

// YearMonth returns the period d falls in.
func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year(), Month: d.Month()}
}

// Period returns the budget's month.
func (b Budget) Period() YearMonth {
	return YearMonth{Year: b.Year, Month: b.Month}
}

// String returns the "YYYY-MM" key.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

func (ym *YearMonth) UnmarshalText(text []byte) error {
	t, err := time.Parse("2006-01", string(text))
	if err != nil {
		return fmt.Errorf("%w: period %q", ErrInvalidMonth, text)
	}
	*ym = YearMonth{Year: t.Year(), Month: int(t.Month())}
	return nil
}
