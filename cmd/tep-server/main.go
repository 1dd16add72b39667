// Command tep-server is the TEP service entrypoint.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/thephilippbusch/tep-app/internal/config"
	"github.com/thephilippbusch/tep-app/internal/server"
	"github.com/thephilippbusch/tep-app/internal/telemetry"
)

const serviceName = "tep-server"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg := config.New()
	if err := config.MergeEnv(cfg); err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	shutdown, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		logger.Error("failed to init tracer", "error", err)
		return 1
	}

	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error("failed to shutdown tracer", "error", err)
		}
	}()

	b, err := server.Start(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}

	if err := b.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
		return 1
	}

	return 0
}
