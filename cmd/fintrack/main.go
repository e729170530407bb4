package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := cli.InitBackend(ctx, logger, cfg)
	defer cli.CloseBackend(logger, result)

	srv := apphttp.NewServer(cfg, result.Store, result.Publisher())

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-cli.ShutdownSignal(logger)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"events", result.AMQP != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		cli.CloseBackend(logger, result)
		os.Exit(1)
	}

	<-stopped
	logger.Info("Server stopped gracefully")
}
