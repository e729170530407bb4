// Package memory keeps exported month reports in process, keyed by month.
package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

type Recorder struct {
	mu      sync.Mutex
	reports map[core.YearMonth]sheets.MonthReport
	writes  int
}

var _ sheets.ReportWriter = (*Recorder)(nil)

func New() *Recorder {
	return &Recorder{reports: make(map[core.YearMonth]sheets.MonthReport)}
}

// WriteMonthReport replaces the stored report of r.Month.
func (m *Recorder) WriteMonthReport(_ context.Context, r sheets.MonthReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.Month] = r
	m.writes++
	return nil
}

// Report returns the latest report written for month.
func (m *Recorder) Report(month core.YearMonth) (sheets.MonthReport, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[month]
	return r, ok
}

// Writes counts every WriteMonthReport call.
func (m *Recorder) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
