package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ocmweb/mercury-sync/internal/app"
	"github.com/ocmweb/mercury-sync/internal/config"
	"github.com/ocmweb/mercury-sync/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "syncd start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()
	log := logger.ZapLogger{}

	logger.InfoObj("syncd starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	syncer, err := app.NewSyncer(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize syncer", "error", err)
		return err
	}

	if err := syncer.Run(ctx); err != nil {
		return fmt.Errorf("syncer run: %w", err)
	}

	return nil
}
