package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tempcast/config"
	"tempcast/httpapi"
	"tempcast/service"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	svc := service.New(service.Config{
		ModelPath:         cfg.ModelPath,
		FeatureScalerPath: cfg.FeatureScalerPath,
		TargetScalerPath:  cfg.TargetScalerPath,
		Window:            cfg.Window,
	}, logger)

	// A failed load leaves the service up but answering 503, with /health
	// reporting which artifact is absent.
	if err := svc.Load(); err != nil {
		logger.Error("artifact load failed, serving in failed state", "error", err)
	}

	app := httpapi.NewApp(svc, logger)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("listening", "port", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
