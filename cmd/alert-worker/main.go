package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting alert-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the alert worker")
		os.Exit(1)
	}
	if cfg.DataBackend == backend.MemoryBackend.String() {
		logger.Warn("Memory backend is process-local; the worker will not see the API's data")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := cli.InitBackend(ctx, logger, cfg)
	defer cli.CloseBackend(logger, result)
	if result.AMQP == nil {
		logger.Error("Failed to connect to AMQP broker")
		cli.CloseBackend(logger, result)
		os.Exit(1)
	}

	notifier, err := buildNotifier(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize Discord notifier", log.FieldError, err)
		cli.CloseBackend(logger, result)
		os.Exit(1)
	}
	reports, err := buildReportWriter(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		cli.CloseBackend(logger, result)
		os.Exit(1)
	}

	alerts := worker.NewAlertWorker(result.Store, result.Store, worker.Options{
		Notifier:  notifier,
		Reports:   reports,
		StatusTTL: cfg.AlertCacheTTL,
	})

	caches := cache.NewManager()
	caches.Register(alerts.StatusCache())
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	done := make(chan error, 1)
	go func() {
		done <- alerts.Run(ctx, result.AMQP)
	}()

	select {
	case <-cli.ShutdownSignal(logger):
	case err := <-done:
		if err != nil {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
		return
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			logger.Error("Worker stopped with error", log.FieldError, err)
		}
		logger.Info("Worker shutdown complete")
	case <-time.After(cfg.ShutdownTimeout):
		logger.Warn("Shutdown timeout reached")
	}
}

// buildNotifier always logs alerts and also posts them to Discord when a
// bot token and channel are configured.
func buildNotifier(logger *log.Logger, cfg *config.Config) (notify.Notifier, error) {
	notifiers := notify.Multi{notify.NewLogNotifier()}
	if !cfg.DiscordEnabled() {
		return notifiers, nil
	}
	discord, err := notify.NewDiscordNotifier(cfg.DiscordBotToken, cfg.DiscordChannelID)
	if err != nil {
		return nil, err
	}
	logger.Info("Discord alerts enabled", "channel_id", cfg.DiscordChannelID)
	return append(notifiers, discord), nil
}

// buildReportWriter returns nil when no spreadsheet is configured, which
// disables report export.
func buildReportWriter(ctx context.Context, logger *log.Logger, cfg *config.Config) (sheets.ReportWriter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
		return nil, nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets report export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
