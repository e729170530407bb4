package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

const statusCacheSize = 1024

// AlertWorker recomputes budget status for the months a change touched and
// alerts when a budget crosses into on-track or over.
type AlertWorker struct {
	transactions storage.TransactionStore
	budgets      storage.BudgetStore
	notifier     notify.Notifier
	reports      sheets.ReportWriter
	statuses     *cache.LRUCache[core.BudgetStatus]
	group        singleflight.Group
	now          func() time.Time
	logger       *log.Logger
}

// Options configures optional collaborators. A nil Reports disables export.
type Options struct {
	Notifier notify.Notifier
	Reports  sheets.ReportWriter
	// StatusTTL bounds how long a budget's last status is remembered.
	StatusTTL time.Duration
	Now       func() time.Time
}

func NewAlertWorker(transactions storage.TransactionStore, budgets storage.BudgetStore, opts Options) *AlertWorker {
	if opts.Notifier == nil {
		opts.Notifier = notify.NewLogNotifier()
	}
	if opts.StatusTTL <= 0 {
		opts.StatusTTL = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AlertWorker{
		transactions: transactions,
		budgets:      budgets,
		notifier:     opts.Notifier,
		reports:      opts.Reports,
		statuses:     cache.NewLRUCache[core.BudgetStatus](statusCacheSize, opts.StatusTTL),
		now:          opts.Now,
		logger:       log.Default(log.ComponentWorker),
	}
}

// StatusCache exposes the status cache so it can be registered with a
// cache.Manager.
func (w *AlertWorker) StatusCache() cache.Cleaner {
	return w.statuses
}

// HandleChange is the AMQP handler. Any period failing fails the message.
func (w *AlertWorker) HandleChange(ctx context.Context, evt *amqp.ChangeEvent) error {
	w.logger.InfoContext(ctx, "Processing change event",
		log.FieldEntity, evt.Entity,
		log.FieldAction, evt.Action,
		"id", evt.ID,
		"periods", len(evt.Periods))

	if evt.Entity == amqp.EntityBudget && evt.Action == amqp.ActionDeleted {
		w.statuses.Delete(evt.ID)
	}

	var errs []error
	for _, p := range evt.Periods {
		if err := w.RecomputePeriod(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("period %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// RecomputePeriod evaluates one month. Concurrent calls for the same month
// share a single evaluation.
func (w *AlertWorker) RecomputePeriod(ctx context.Context, p core.YearMonth) error {
	_, err, shared := w.group.Do(p.String(), func() (any, error) {
		return nil, w.recompute(ctx, p)
	})
	if shared {
		w.logger.DebugContext(ctx, "Joined in-flight recomputation", log.FieldPeriod, p.String())
	}
	return err
}

func (w *AlertWorker) recompute(ctx context.Context, p core.YearMonth) error {
	var (
		budgets []core.Budget
		txs     []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		budgets, err = w.budgets.ListBudgets(gctx, p.Month, p.Year)
		if err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		txs, err = w.transactions.TransactionsInRange(gctx, analytics.MonthRange(p.Year, p.Month))
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	summaries := analytics.CalculateBudgetVsActual(budgets, txs)
	for _, alert := range w.transitions(summaries) {
		if err := w.notifier.Notify(ctx, alert); err != nil {
			// The status is already recorded; retrying would only repeat the
			// notifiers that did succeed.
			w.logger.ErrorContext(ctx, "Failed to deliver budget alert",
				log.FieldBudgetID, alert.Summary.ID,
				log.FieldError, err)
		}
	}

	if w.reports == nil {
		return nil
	}
	report := sheets.MonthReport{
		Month:       p,
		Summaries:   summaries,
		Insights:    analytics.GenerateInsights(summaries, txs),
		GeneratedAt: w.now(),
	}
	if err := w.reports.WriteMonthReport(ctx, report); err != nil {
		w.logger.ErrorContext(ctx, "Failed to export month report",
			log.FieldOperation, log.OpExport,
			log.FieldPeriod, p.String(),
			log.FieldError, err)
		return fmt.Errorf("write month report: %w", err)
	}
	return nil
}

// transitions records each summary's status and returns an alert for every
// budget that moved into on-track or over.
func (w *AlertWorker) transitions(summaries []core.BudgetSummary) []notify.Alert {
	var alerts []notify.Alert
	for _, s := range summaries {
		prev, seen := w.statuses.Swap(s.ID, s.Status)
		if !alertable(s.Status) || (seen && prev == s.Status) {
			continue
		}
		alerts = append(alerts, notify.Alert{Summary: s, Previous: prev})
	}
	return alerts
}

func alertable(s core.BudgetStatus) bool {
	return s == core.StatusOver || s == core.StatusOnTrack
}

// ChangeConsumer delivers change events to a handler until ctx ends.
type ChangeConsumer interface {
	ConsumeChanges(ctx context.Context, handler func(context.Context, *amqp.ChangeEvent) error) error
}

// Run consumes change events until ctx is cancelled.
func (w *AlertWorker) Run(ctx context.Context, consumer ChangeConsumer) error {
	w.logger.InfoContext(ctx, "Alert worker started")
	err := consumer.ConsumeChanges(ctx, w.HandleChange)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
