package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ocmweb/mercury-sync/internal/app"
	"github.com/ocmweb/mercury-sync/internal/config"
	"github.com/ocmweb/mercury-sync/internal/logger"
)

// syncrun processes one importer immediately and exits. With -purge it
// removes every record the importer created instead.
func main() {
	importerID := flag.String("importer", "", "importer id to process")
	purge := flag.Bool("purge", false, "remove all records belonging to the importer")
	flag.Parse()

	if err := run(*importerID, *purge); err != nil {
		fmt.Fprintf(os.Stderr, "syncrun failed: %v\n", err)
		os.Exit(1)
	}
}

func run(importerID string, purge bool) error {
	if importerID == "" {
		return fmt.Errorf("-importer is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()
	log := logger.ZapLogger{}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	syncer, err := app.NewSyncer(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize syncer", "error", err)
		return err
	}
	defer syncer.Close()

	if purge {
		imp, ok := syncer.Importers().ByID(importerID)
		if !ok {
			return fmt.Errorf("unknown importer %q", importerID)
		}
		n, err := syncer.Engine().PurgeImporter(ctx, imp)
		if err != nil {
			return fmt.Errorf("purge importer: %w", err)
		}
		logger.InfoObj("importer purged", "records_removed", n)
		return nil
	}

	return syncer.RunOne(ctx, importerID)
}
