package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/log"
	ports "fintrack/internal/sheets"
)

// Client writes month reports to one spreadsheet, one tab per month.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ ports.ReportWriter = (*Client)(nil)

// Config selects the spreadsheet and the service account used to reach it.
// Inline JSON wins over the file path.
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	creds, err := credentialsJSON(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets report writer ready", "spreadsheet_id", spreadsheetID)
	return NewWithService(svc, spreadsheetID), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID}
}

func credentialsJSON(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		data, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// newHTTPClientWithPooling keeps connections to the Sheets API warm
// between reports.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// WriteMonthReport replaces the contents of the month's tab, creating the
// tab on first use.
func (c *Client) WriteMonthReport(ctx context.Context, r ports.MonthReport) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet := ports.SheetName(r.Month)

	if err := c.ensureSheet(ctx, sheet); err != nil {
		return err
	}

	all := quoteSheet(sheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, all, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheet, err)
	}

	vr := &gsheet.ValueRange{Values: ReportRows(r)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, all+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet %s: %w", sheet, err)
	}

	slog.InfoContext(ctx, "Month report exported",
		log.FieldOperation, log.OpExport,
		"sheet", sheet,
		"budgets", len(r.Summaries),
		"insights", len(r.Insights))
	return nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	slog.InfoContext(ctx, "Created report sheet", "sheet", title)
	return nil
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// ReportRows lays a report out as a budget table followed by the insights.
func ReportRows(r ports.MonthReport) [][]any {
	rows := [][]any{
		{"Category", "Budget", "Spent", "Remaining", "Percentage", "Status"},
	}
	for _, s := range r.Summaries {
		rows = append(rows, []any{
			s.Category.String(),
			s.Amount.Float64(),
			s.Spent.Float64(),
			s.Remaining.Float64(),
			s.Percentage,
			string(s.Status),
		})
	}

	rows = append(rows, []any{}, []any{"Insights"})
	for _, in := range r.Insights {
		rows = append(rows, []any{string(in.Type), in.Title, in.Description})
	}

	rows = append(rows, []any{}, []any{"Generated at", r.GeneratedAt.UTC().Format(time.RFC3339)})
	return rows
}
