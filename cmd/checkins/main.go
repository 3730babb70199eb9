package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"checkins/internal/cli"
	apphttp "checkins/internal/http"
	applog "checkins/internal/log"
	"checkins/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL")))
	logger := cli.SetupLogger(cfg.LogLevel)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	res := cli.InitBackend(startCtx, logger, cfg)
	cancelStart()

	reports := services.NewReportService(res.Backend, cfg.QueryTimeout, logger)
	srv := apphttp.NewServer(":"+cfg.Port, reports, res.Backend, apphttp.Options{
		Logger:         logger,
		RateLimitRPM:   cfg.RateLimitRPM,
		TrustedProxies: cfg.TrustedProxies,
	})
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err, applog.FieldOperation, applog.OpShutdown)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Database close error", applog.FieldError, err, applog.FieldOperation, applog.OpShutdown)
		}
	})

	logger.Info("Starting checkins server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		applog.FieldOperation, applog.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		_ = res.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
