package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxDescriptionLength = 500
	MinBudgetYear        = 2000
	MaxBudgetYear        = 2100
)

type (
	// Transaction is a signed money movement: positive is income, negative
	// is expense, zero counts as neither.
	Transaction struct {
		ID          string    `json:"id"`
		Amount      Money     `json:"amount"`
		Date        Date      `json:"date"`
		Description string    `json:"description"`
		Category    Category  `json:"category"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// Budget is a monthly spending limit for one category. At most one
	// exists per (Category, Month, Year).
	Budget struct {
		ID        string    `json:"id"`
		Category  Category  `json:"category"`
		Amount    Money     `json:"amount"`
		Month     int       `json:"month"`
		Year      int       `json:"year"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// TransactionPatch carries the fields of a partial update. Nil fields
	// are left untouched.
	TransactionPatch struct {
		Amount      *Money
		Date        *Date
		Description *string
		Category    *Category
	}
)

var (
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidYear        = errors.New("invalid year")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 500 characters)")
)

// Validate checks the fields a caller controls. IDs and timestamps are
// assigned by the store.
func (t Transaction) Validate() error {
	var errs ValidationErrors
	if err := validateDescription(t.Description); err != nil {
		errs = errs.Add("description", err)
	}
	if err := t.Date.Validate(); err != nil {
		errs = errs.Add("date", err)
	}
	if !t.Category.IsValid() {
		errs = errs.Add("category", ErrInvalidCategory)
	}
	return errs.OrNil()
}

// IsIncome reports a strictly positive amount.
func (t Transaction) IsIncome() bool { return t.Amount.IsPositive() }

// IsExpense reports a strictly negative amount.
func (t Transaction) IsExpense() bool { return t.Amount.IsNegative() }

func (b Budget) Validate() error {
	var errs ValidationErrors
	if !b.Category.IsValid() {
		errs = errs.Add("category", ErrInvalidCategory)
	}
	if err := b.Amount.Validate(); err != nil {
		errs = errs.Add("amount", err)
	}
	if err := ValidatePeriod(b.Month, b.Year); err != nil {
		var ve ValidationErrors
		if errors.As(err, &ve) {
			errs = append(errs, ve...)
		}
	}
	return errs.OrNil()
}

// ValidatePeriod checks a budget month (1-12) and year (2000-2100).
func ValidatePeriod(month, year int) error {
	var errs ValidationErrors
	if month < 1 || month > 12 {
		errs = errs.Add("month", ErrInvalidMonth)
	}
	if year < MinBudgetYear || year > MaxBudgetYear {
		errs = errs.Add("year", ErrInvalidYear)
	}
	return errs.OrNil()
}

// IsEmpty reports whether no field is set.
func (p TransactionPatch) IsEmpty() bool {
	return p.Amount == nil && p.Date == nil && p.Description == nil && p.Category == nil
}

func (p TransactionPatch) Validate() error {
	var errs ValidationErrors
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			errs = errs.Add("description", err)
		}
	}
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			errs = errs.Add("date", err)
		}
	}
	if p.Category != nil && !p.Category.IsValid() {
		errs = errs.Add("category", ErrInvalidCategory)
	}
	return errs.OrNil()
}

// Apply returns t with the patch applied and whether anything changed.
func (p TransactionPatch) Apply(t Transaction) (Transaction, bool) {
	changed := false
	if p.Amount != nil && *p.Amount != t.Amount {
		t.Amount = *p.Amount
		changed = true
	}
	if p.Date != nil && !p.Date.Equal(t.Date) {
		t.Date = *p.Date
		changed = true
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		if desc != t.Description {
			t.Description = desc
			changed = true
		}
	}
	if p.Category != nil && *p.Category != t.Category {
		t.Category = *p.Category
		changed = true
	}
	return t, changed
}

func validateDescription(desc string) error {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
