// Package cli holds the start-up steps shared by cmd/fintrack and
// cmd/alert-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

// Bootstrap loads the optional .env file, reads configuration and installs
// a component logger at the configured level as the process default. It
// exits the process when the configuration is invalid.
func Bootstrap(component string) (*config.Config, *log.Logger) {
	// Missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.ForComponent(component, log.ParseLevel(cfg.LogLevel))
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitBackend opens the configured store and, when AMQP_URL is set, the
// broker connection. It exits the process when the store cannot be opened.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend",
			log.FieldError, err,
			log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// CloseBackend releases the store and broker, logging any failure.
func CloseBackend(logger *log.Logger, result *backend.BackendResult) {
	if err := result.Close(); err != nil {
		logger.Error("Failed to close backend", log.FieldError, err)
	}
}

// ShutdownSignal returns a channel that receives the first SIGINT or
// SIGTERM, after logging it.
func ShutdownSignal(logger *log.Logger) <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	out := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received", "signal", sig.String())
		out <- sig
	}()
	return out
}
