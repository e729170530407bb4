// Package notify delivers budget alerts to people.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Alert reports a budget whose status changed into over or on-track.
type Alert struct {
	Summary  core.BudgetSummary
	Previous core.BudgetStatus // empty when the budget had not been seen before
}

type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

var (
	printer   = message.NewPrinter(language.English)
	titleCase = cases.Title(language.English)
)

// Text renders the alert as a single line, e.g.
//
//	[Over] Food & Dining 2024-06: spent 1,250.00 of 1,000.00 (125%)
func (a Alert) Text() string {
	s := a.Summary
	return printer.Sprintf("[%s] %s %s: spent %s of %s (%d%%)",
		titleCase.String(string(s.Status)),
		s.Category,
		s.Period(),
		FormatMoney(s.Spent),
		FormatMoney(s.Amount),
		s.Percentage)
}

// FormatMoney renders an amount with English digit grouping.
func FormatMoney(m core.Money) string {
	return printer.Sprintf("%.2f", m.Float64())
}

// LogNotifier writes alerts to the structured log.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: log.Default(log.ComponentNotify)}
}

func (n *LogNotifier) Notify(ctx context.Context, a Alert) error {
	fields := log.NewFields().
		WithBudget(a.Summary.ID, a.Summary.Category.String(), a.Summary.Month, a.Summary.Year).
		WithOperation(log.OpAlert)
	fields[log.FieldStatus] = string(a.Summary.Status)
	n.logger.Logger.Log(ctx, levelFor(a.Summary.Status), a.Text(), fields.ToSlice()...)
	return nil
}

func levelFor(s core.BudgetStatus) slog.Level {
	if s == core.StatusOver {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// Multi fans an alert out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, a Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
