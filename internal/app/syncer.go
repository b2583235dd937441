package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ocmweb/mercury-sync/internal/config"
	"github.com/ocmweb/mercury-sync/internal/importer"
	"github.com/ocmweb/mercury-sync/internal/logger"
	"github.com/ocmweb/mercury-sync/internal/mapper"
	"github.com/ocmweb/mercury-sync/internal/store"
	syncengine "github.com/ocmweb/mercury-sync/internal/sync"
	"github.com/ocmweb/mercury-sync/pkg/httpclient"
	"github.com/ocmweb/mercury-sync/pkg/mercury"
	"github.com/ocmweb/mercury-sync/pkg/publishers"
)

// Syncer represents the feed sync runtime. It manages the sync loop,
// coordinating between the importer registry, the reconciliation engine,
// and the event publishers. It also handles storage initialization and
// cleanup.
type Syncer struct {
	cfg       *config.Config
	importers *importer.Registry
	state     *importer.StateStore
	engine    *syncengine.Engine
	fanout    *publishers.Fanout
	interval  time.Duration
	log       logger.Logger
	store     *store.BoltStore
}

// NewSyncer builds a sync runtime from config files.
func NewSyncer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Syncer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	importerReg, err := importer.LoadRegistry(cfg.ImportersFile)
	if err != nil {
		return nil, fmt.Errorf("load importers registry: %w", err)
	}
	importerList := importerReg.All()
	importerIDs := make([]string, 0, len(importerList))
	for _, imp := range importerList {
		importerIDs = append(importerIDs, imp.ID)
	}
	log.InfoObj("importers registry loaded", "importers_meta", map[string]any{
		"count": len(importerIDs),
		"ids":   importerIDs,
	})

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	contentStore, err := store.Open(cfg.StoragePath, cfg.MediaDir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"path":      cfg.StoragePath,
		"media_dir": cfg.MediaDir,
	})

	state, err := importer.NewStateStore(contentStore.DB())
	if err != nil {
		contentStore.Close()
		return nil, fmt.Errorf("init importer state: %w", err)
	}

	client := mercury.NewHTTPClient(mercury.Options{
		BaseURL:        cfg.MercuryURL,
		ConnectTimeout: cfg.ConnectTimeout,
		RequestTimeout: cfg.RequestTimeout,
	})
	fetcher := httpclient.NewRestyClientWithOptions(httpclient.Options{
		Timeout:        cfg.RequestTimeout,
		ConnectTimeout: cfg.ConnectTimeout,
		MaxRedirects:   10,
	})

	engine := syncengine.NewEngine(syncengine.Options{
		Client:     client,
		Store:      contentStore,
		State:      state,
		Mappers:    mapper.DefaultRegistry(),
		Fetcher:    fetcher,
		Events:     fanout,
		Log:        log,
		TextFormat: cfg.TextFormat,
	})

	return &Syncer{
		cfg:       cfg,
		importers: importerReg,
		state:     state,
		engine:    engine,
		fanout:    fanout,
		interval:  cfg.SyncInterval,
		log:       log,
		store:     contentStore,
	}, nil
}

// buildFanout assembles the publisher fanout from the publishers file. A
// missing file or zero enabled publishers leaves event publishing off.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	cfgs, err := publishers.LoadConfigs(path)
	if err != nil {
		log.WarnObj("publishers file not loaded, event publishing disabled", "error", err.Error())
		return publishers.NewFanout(nil, pubLogger{log}), nil
	}
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), cfgs, pubLogger{log})
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	log.InfoObj("publishers loaded", "count", len(pubs))
	return publishers.NewFanout(pubs, pubLogger{log}), nil
}

// Engine exposes the reconciliation engine for one-shot commands.
func (s *Syncer) Engine() *syncengine.Engine { return s.engine }

// Importers exposes the configured importer registry.
func (s *Syncer) Importers() *importer.Registry { return s.importers }

// Run starts the sync loop until the context is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	if s == nil || s.engine == nil {
		return fmt.Errorf("syncer is not initialized")
	}
	defer s.Close()

	importers := s.importers.All()
	if len(importers) == 0 {
		s.log.WarnObj("no importers configured; syncer idle", "importers_file", s.cfg.ImportersFile)
		<-ctx.Done()
		return ctx.Err()
	}

	s.log.InfoObj("sync loop starting", "syncer_state", map[string]any{
		"importers_count":  len(importers),
		"publishers_count": s.fanout.Len(),
		"sync_interval":    s.interval.String(),
	})

	s.runDue(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.InfoObj("sync loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// runDue processes every importer whose polling interval has elapsed.
func (s *Syncer) runDue(ctx context.Context) {
	now := time.Now()
	for _, imp := range s.importers.All() {
		if ctx.Err() != nil {
			return
		}
		last, err := s.state.LastRun(imp.ID)
		if err != nil {
			s.log.ErrorObj("failed to load run stamp", "importer", imp.ID)
			continue
		}
		imp.LastRun = last
		if !imp.Due(now) {
			continue
		}
		if _, err := s.engine.ProcessImporter(ctx, imp); err != nil {
			s.log.ErrorObj("importer pass failed", "importer", imp.ID)
		}
	}
}

// RunOne processes a single importer immediately, ignoring its schedule.
func (s *Syncer) RunOne(ctx context.Context, id string) error {
	imp, ok := s.importers.ByID(id)
	if !ok {
		return fmt.Errorf("unknown importer %q", id)
	}
	last, err := s.state.LastRun(imp.ID)
	if err != nil {
		return fmt.Errorf("load run stamp: %w", err)
	}
	imp.LastRun = last
	_, err = s.engine.ProcessImporter(ctx, imp)
	return err
}

// Close releases the storage backend and the publisher fanout.
func (s *Syncer) Close() {
	if s == nil {
		return
	}
	if s.fanout != nil {
		if err := s.fanout.Close(); err != nil {
			s.log.ErrorObj("publisher close failed", "error", err.Error())
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.ErrorObj("storage close failed", "error", err.Error())
		}
	}
}

// pubLogger adapts the application logger to the publishers logging surface.
type pubLogger struct {
	log logger.Logger
}

func (p pubLogger) Debugf(format string, args ...interface{}) {
	p.log.DebugObj(fmt.Sprintf(format, args...), "source", "publishers")
}

func (p pubLogger) Infof(format string, args ...interface{}) {
	p.log.InfoObj(fmt.Sprintf(format, args...), "source", "publishers")
}

func (p pubLogger) Warnf(format string, args ...interface{}) {
	p.log.WarnObj(fmt.Sprintf(format, args...), "source", "publishers")
}

func (p pubLogger) Errorf(format string, args ...interface{}) {
	p.log.ErrorObj(fmt.Sprintf(format, args...), "source", "publishers")
}
