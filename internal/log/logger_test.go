package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Component: ComponentWorker,
		Handler:   slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})

	logger.Info("budget alert", FieldBudgetID, "b-1")

	out := buf.String()
	if !strings.Contains(out, "component=worker") {
		t.Errorf("missing component in %q", out)
	}
	if !strings.Contains(out, "budget_id=b-1") {
		t.Errorf("missing budget id in %q", out)
	}
}

func TestLogFieldsBuilder(t *testing.T) {
	fields := NewFields().
		WithTransaction("tx-1", -1250, "Shopping").
		WithOperation(OpCreate).
		WithErrorType(ErrorTypeValidation).
		WithError(errors.New("boom")).
		WithError(nil)

	if fields[FieldTransactionID] != "tx-1" || fields[FieldAmountCents] != int64(-1250) {
		t.Errorf("unexpected transaction fields: %v", fields)
	}
	if fields[FieldErrorType] != "validation_error" || fields[FieldOperation] != OpCreate {
		t.Errorf("unexpected operation fields: %v", fields)
	}
	if fields[FieldError] != "boom" {
		t.Errorf("nil error should not overwrite: %v", fields[FieldError])
	}
	if len(fields.ToSlice()) != 2*len(fields) {
		t.Errorf("ToSlice length mismatch")
	}
}
