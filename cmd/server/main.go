// Package main implements the entry point for the subtext server, which
// exposes the translation command engine over HTTP: submitting translation
// batches, undo/redo of applied translations, and cooperative abort.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/subtext/internal/config"
	"github.com/phrazzld/subtext/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.Setup(cfg.Server)
	logg.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"worker_count", cfg.Engine.WorkerCount,
		"model", cfg.Provider.Model,
		"events_enabled", cfg.Events.AMQPURL != "")

	app, err := newApplication(cfg, logg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.run(ctx); err != nil {
		logg.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
