package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Category classifies transactions and budgets. The set is closed.
type Category int

const (
	CategoryFoodDining Category = iota + 1
	CategoryTransportation
	CategoryShopping
	CategoryEntertainment
	CategoryBillsUtilities
	CategoryHealthcare
	CategoryEducation
	CategoryIncomeSalary
	CategoryOther
)

// Categories returns every category in registry order.
func Categories() []Category {
	return []Category{
		CategoryFoodDining,
		CategoryTransportation,
		CategoryShopping,
		CategoryEntertainment,
		CategoryBillsUtilities,
		CategoryHealthcare,
		CategoryEducation,
		CategoryIncomeSalary,
		CategoryOther,
	}
}

// String returns the display label, or "" for values outside the registry.
func (c Category) String() string {
	switch c {
	case CategoryFoodDining:
		return "Food & Dining"
	case CategoryTransportation:
		return "Transportation"
	case CategoryShopping:
		return "Shopping"
	case CategoryEntertainment:
		return "Entertainment"
	case CategoryBillsUtilities:
		return "Bills & Utilities"
	case CategoryHealthcare:
		return "Healthcare"
	case CategoryEducation:
		return "Education"
	case CategoryIncomeSalary:
		return "Income/Salary"
	case CategoryOther:
		return "Other"
	}
	return ""
}

// IsValid reports whether c belongs to the registry.
func (c Category) IsValid() bool {
	return c.String() != ""
}

// IsIncome reports whether c is the income category. Budgets for it are
// allowed but rarely meaningful.
func (c Category) IsIncome() bool {
	return c == CategoryIncomeSalary
}

// ParseCategory maps a label back to its Category.
func ParseCategory(label string) (Category, error) {
	for _, c := range Categories() {
		if c.String() == label {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, label)
}

// CategoryLabels returns the labels in registry order.
func CategoryLabels() []string {
	cats := Categories()
	labels := make([]string, len(cats))
	for i, c := range cats {
		labels[i] = c.String()
	}
	return labels
}

func (c Category) MarshalJSON() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("marshal category %d: %w", int(c), ErrInvalidCategory)
	}
	return json.Marshal(c.String())
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return fmt.Errorf("category must be a string: %w", err)
	}
	parsed, err := ParseCategory(label)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value implements driver.Valuer; categories are stored by label.
func (c Category) Value() (driver.Value, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("store category %d: %w", int(c), ErrInvalidCategory)
	}
	return c.String(), nil
}

// Scan implements sql.Scanner.
func (c *Category) Scan(src any) error {
	var label string
	switch v := src.(type) {
	case string:
		label = v
	case []byte:
		label = string(v)
	default:
		return fmt.Errorf("scan category: unsupported type %T", src)
	}
	parsed, err := ParseCategory(label)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
