package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/ocmweb/mercury-sync/internal/decoder"
	"github.com/ocmweb/mercury-sync/internal/domain"
	"github.com/ocmweb/mercury-sync/internal/importer"
	"github.com/ocmweb/mercury-sync/internal/logger"
	"github.com/ocmweb/mercury-sync/internal/mapper"
	"github.com/ocmweb/mercury-sync/internal/store"
	"github.com/ocmweb/mercury-sync/pkg/httpclient"
	"github.com/ocmweb/mercury-sync/pkg/mercury"
	"github.com/ocmweb/mercury-sync/pkg/publishers"
)

// Package sync drives one reconciliation pass per importer: delete what the
// remote deleted, update what it changed, import what is new.

// LastRunStore persists per-importer run stamps.
type LastRunStore interface {
	SetLastRun(importerID string, t time.Time) error
}

// Options configures an Engine. Client, Store and State are required; the
// rest have working defaults.
type Options struct {
	Client  mercury.Client
	Store   store.ContentStore
	State   LastRunStore
	Mappers *mapper.Registry
	// Fetcher downloads media and file assets referenced by feed payloads.
	Fetcher    httpclient.Client
	Events     *publishers.Fanout
	Log        logger.Logger
	TextFormat string
	Now        func() time.Time
}

// Engine reconciles local content against the Mercury service.
type Engine struct {
	client     mercury.Client
	store      store.ContentStore
	state      LastRunStore
	mappers    *mapper.Registry
	events     *publishers.Fanout
	log        logger.Logger
	textFormat string
	now        func() time.Time

	terms *mapper.TermService
	media *mapper.MediaService
	files *mapper.FileService
}

func NewEngine(opts Options) *Engine {
	if opts.Log == nil {
		opts.Log = logger.NopLogger{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Mappers == nil {
		opts.Mappers = mapper.DefaultRegistry()
	}
	return &Engine{
		client:     opts.Client,
		store:      opts.Store,
		state:      opts.State,
		mappers:    opts.Mappers,
		events:     opts.Events,
		log:        opts.Log,
		textFormat: opts.TextFormat,
		now:        opts.Now,
		terms:      mapper.NewTermService(opts.Store, opts.Log),
		media:      mapper.NewMediaService(opts.Store, opts.Fetcher, opts.Log),
		files:      mapper.NewFileService(opts.Store, opts.Fetcher, opts.Log),
	}
}

// run carries the state of a single reconciliation pass.
type run struct {
	imp   importer.Importer
	stats *domain.SyncStats
	// visiting guards cross-reference imports against cycles.
	visiting   map[string]bool
	svc        mapper.Services
	feedFailed bool
}

// ProcessImporter runs one full delete / update / import pass for an
// importer. Per-item failures are logged and counted but do not stop the
// pass; a failed feed audit or pull skips that feed and withholds the run
// stamp so the next pass retries from the same point.
func (e *Engine) ProcessImporter(ctx context.Context, imp importer.Importer) (*domain.SyncStats, error) {
	start := e.now()
	r := &run{
		imp:      imp,
		stats:    &domain.SyncStats{ImporterID: imp.ID},
		visiting: make(map[string]bool),
	}
	r.svc = mapper.Services{
		TextFormat: e.textFormat,
		Terms:      e.terms,
		Media:      e.media,
		Files:      e.files,
		ImportRef: func(ctx context.Context, remoteID string) (uint64, bool) {
			return e.importRef(ctx, r, remoteID)
		},
	}

	e.deleteTracked(ctx, r)
	e.updateChanged(ctx, r)
	e.importFeeds(ctx, r)

	if !r.feedFailed {
		if err := e.state.SetLastRun(imp.ID, e.now()); err != nil {
			e.log.ErrorObj("failed to persist run stamp", "importer", imp.ID)
		}
	} else {
		e.log.WarnObj("run stamp withheld, at least one feed failed", "importer", imp.ID)
	}

	r.stats.Duration = e.now().Sub(start)
	e.log.InfoObj("importer processed", "stats", r.stats)
	return r.stats, nil
}

// deleteTracked removes local records whose remote counterparts appear in the
// deletion tracker. A tracker fetch failure downgrades the step to a no-op.
func (e *Engine) deleteTracked(ctx context.Context, r *run) {
	if !r.imp.TrackDeletes {
		return
	}

	deleted, err := e.client.DeletedList(ctx)
	if err != nil {
		e.log.WarnObj(fetchMessage(err, mercury.KindFeed, "deltracker"), "importer", r.imp.ID)
		return
	}
	if len(deleted) == 0 {
		return
	}

	local, err := e.store.RecordsByImporter(r.imp.ID)
	if err != nil {
		e.log.WarnObj("failed to list importer records", "error", err.Error())
		return
	}

	var doomed []string
	for remoteID := range local {
		if _, gone := deleted[remoteID]; gone {
			doomed = append(doomed, remoteID)
		}
	}
	if len(doomed) == 0 {
		return
	}

	if err := e.store.DeleteBatch(doomed); err != nil {
		e.log.WarnObj("failed to delete tracked records", "error", err.Error())
		r.stats.Errors++
		return
	}
	r.stats.Deleted += len(doomed)
	for _, remoteID := range doomed {
		e.emit(ctx, r, "", remoteID, deleted[remoteID], publishers.ActionDeleted)
	}
	e.log.InfoObj("deleted records removed upstream", "count", len(doomed))
}

// updateChanged refreshes local records the remote reports as changed since
// the last run. A never-run importer skips this step; the import step covers
// everything.
func (e *Engine) updateChanged(ctx context.Context, r *run) {
	if r.imp.LastRun.IsZero() {
		e.log.DebugObj("importer never ran, skipping incremental update", "importer", r.imp.ID)
		return
	}

	ids, err := e.client.UpdatedList(ctx, r.imp.LastRun)
	if err != nil {
		e.log.WarnObj(fetchMessage(err, mercury.KindFeed, "uptracker"), "importer", r.imp.ID)
		return
	}

	for _, id := range ids {
		rec, found, err := e.store.LookupByRemoteID(id)
		if err != nil {
			e.log.WarnObj("record lookup failed", "remote_id", id)
			r.stats.Errors++
			continue
		}
		if !found {
			// Not ours; the import step picks it up if a feed carries it.
			continue
		}

		payload, err := e.client.Pull(ctx, id, mercury.KindItem, "")
		if err != nil {
			e.log.WarnObj(fetchMessage(err, mercury.KindItem, id), "importer", r.imp.ID)
			r.stats.Errors++
			continue
		}
		item, err := decoder.DecodeItem(payload)
		if err != nil {
			e.log.WarnObj("failed to decode updated item", "remote_id", id)
			r.stats.Errors++
			continue
		}

		m, err := e.mappers.MapperFor(item.Type)
		if err != nil {
			e.log.WarnObj("unsupported content type", "type", item.Type)
			r.stats.Errors++
			continue
		}
		if err := m.BuildUpdateOps(ctx, rec, item, r.svc); err != nil {
			e.log.WarnObj("failed to map updated item", "remote_id", id)
			r.stats.Errors++
			continue
		}
		if err := e.store.Update(rec); err != nil {
			e.log.WarnObj("failed to persist update", "remote_id", id)
			r.stats.Errors++
			continue
		}
		r.stats.Updated++
		e.emit(ctx, r, "", id, item.Type, publishers.ActionUpdated)
	}
}

// importFeeds imports new items from every feed of the importer.
func (e *Engine) importFeeds(ctx context.Context, r *run) {
	for _, fid := range r.imp.FeedIDs {
		if err := e.importFeed(ctx, r, fid); err != nil {
			r.feedFailed = true
			e.log.WarnObj(fetchMessage(err, mercury.KindFeed, fid), "importer", r.imp.ID)
		}
	}
}

// importFeed audits one feed against the local store and imports what is
// missing. The full payload is only pulled when the audit finds work.
func (e *Engine) importFeed(ctx context.Context, r *run, feedID string) error {
	ids, err := e.client.ItemList(ctx, feedID)
	if err != nil {
		return err
	}

	preexisting := make(map[string]bool)
	for _, id := range ids {
		exists, err := e.store.ExistsByRemoteID(id)
		if err != nil {
			return fmt.Errorf("audit lookup for %s: %w", id, err)
		}
		if exists {
			preexisting[id] = true
		}
	}
	if len(preexisting) == len(ids) {
		e.log.DebugObj("feed fully imported, nothing to do", "feed", feedID)
		return nil
	}

	payload, err := e.client.Pull(ctx, feedID, mercury.KindFeed, "")
	if err != nil {
		return err
	}
	items, itemErrs, err := decoder.DecodeFeed(payload)
	if err != nil {
		return err
	}
	for range itemErrs {
		r.stats.Errors++
	}
	for _, derr := range itemErrs {
		e.log.WarnObj("skipping malformed feed item", "error", derr.Error())
	}

	count := 0
	for _, item := range items {
		if preexisting[item.RemoteID] {
			r.stats.Skipped++
			continue
		}
		for _, occ := range expandOccurrences(item) {
			if _, ok := e.createItem(ctx, r, feedID, occ); ok {
				count++
			}
		}
	}
	e.log.InfoObj(fmt.Sprintf("%d items imported from feed %s", count, feedID), "importer", r.imp.ID)
	return nil
}

// expandOccurrences splits a recurring event into one item per occurrence.
// Every other item passes through unchanged.
func expandOccurrences(item *domain.RemoteItem) []*domain.RemoteItem {
	if item.Type != "event" || len(item.Times) <= 1 {
		return []*domain.RemoteItem{item}
	}
	out := make([]*domain.RemoteItem, 0, len(item.Times))
	for _, tr := range item.Times {
		occ := *item
		occ.Times = []domain.TimeRange{tr}
		out = append(out, &occ)
	}
	return out
}

// createItem maps and persists a single new item. Failures are logged and
// counted; the caller moves on to the next item.
func (e *Engine) createItem(ctx context.Context, r *run, feedID string, item *domain.RemoteItem) (uint64, bool) {
	// A reference import earlier in the pass may have materialized this id.
	if item.Type != "event" {
		if rec, found, err := e.store.LookupByRemoteID(item.RemoteID); err == nil && found {
			r.stats.Skipped++
			return rec.LocalID, false
		}
	}
	r.visiting[item.RemoteID] = true
	defer delete(r.visiting, item.RemoteID)

	m, err := e.mappers.MapperFor(item.Type)
	if err != nil {
		e.log.WarnObj("unsupported content type", "type", item.Type)
		r.stats.Errors++
		return 0, false
	}

	rec, err := m.BuildCreateParams(ctx, item, r.svc)
	if err != nil {
		e.log.WarnObj("failed to map new item", "remote_id", item.RemoteID)
		r.stats.Errors++
		return 0, false
	}
	rec.ImporterID = r.imp.ID
	rec.OwnerID = r.imp.OwnerID

	localID, err := e.store.Create(rec)
	if err != nil {
		e.log.WarnObj("failed to persist new item", "remote_id", item.RemoteID)
		r.stats.Errors++
		return 0, false
	}
	r.stats.Created++
	e.emit(ctx, r, feedID, item.RemoteID, item.Type, publishers.ActionCreated)
	return localID, true
}

// importRef resolves a cross-referenced remote item to a local id, importing
// it on the fly when absent. The run's visiting set breaks reference cycles.
func (e *Engine) importRef(ctx context.Context, r *run, remoteID string) (uint64, bool) {
	rec, found, err := e.store.LookupByRemoteID(remoteID)
	if err != nil {
		e.log.WarnObj("record lookup failed", "remote_id", remoteID)
		return 0, false
	}
	if found {
		return rec.LocalID, true
	}

	// createItem marks ids while they are being built; seeing one here means
	// the reference loops back into its own import chain.
	if r.visiting[remoteID] {
		e.log.WarnObj("reference cycle detected, skipping", "remote_id", remoteID)
		return 0, false
	}

	payload, err := e.client.Pull(ctx, remoteID, mercury.KindItem, "")
	if err != nil {
		e.log.WarnObj(fetchMessage(err, mercury.KindItem, remoteID), "importer", r.imp.ID)
		return 0, false
	}
	item, err := decoder.DecodeItem(payload)
	if err != nil {
		e.log.WarnObj("failed to decode referenced item", "remote_id", remoteID)
		return 0, false
	}
	return e.createItem(ctx, r, "", item)
}

// PurgeImporter removes every record belonging to an importer, along with
// the media entities attached to its profile records. It returns the number
// of records removed.
func (e *Engine) PurgeImporter(ctx context.Context, imp importer.Importer) (int, error) {
	local, err := e.store.RecordsByImporter(imp.ID)
	if err != nil {
		return 0, fmt.Errorf("listing importer records: %w", err)
	}
	if len(local) == 0 {
		return 0, nil
	}

	doomed := make([]string, 0, len(local))
	types := make(map[string]string, len(local))
	for remoteID := range local {
		doomed = append(doomed, remoteID)
		rec, found, err := e.store.LookupByRemoteID(remoteID)
		if err != nil || !found {
			continue
		}
		types[remoteID] = rec.Type
		if rec.Type != "profile" {
			continue
		}
		for _, mid := range rec.MediaIDs {
			if err := e.store.DeleteMedia(mid); err != nil {
				e.log.WarnObj("failed to delete profile media", "remote_id", remoteID)
			}
		}
	}

	if err := e.store.DeleteBatch(doomed); err != nil {
		return 0, fmt.Errorf("deleting importer records: %w", err)
	}
	r := &run{imp: imp, stats: &domain.SyncStats{ImporterID: imp.ID}}
	for _, remoteID := range doomed {
		e.emit(ctx, r, "", remoteID, types[remoteID], publishers.ActionDeleted)
	}
	e.log.InfoObj(fmt.Sprintf("%d records purged for importer %s", len(doomed), imp.ID), "importer", imp.ID)
	return len(doomed), nil
}

// emit publishes one sync event through the fanout, if configured.
func (e *Engine) emit(ctx context.Context, r *run, feedID, remoteID, contentType, action string) {
	if e.events == nil || e.events.Len() == 0 {
		return
	}
	n, err := e.events.Publish(ctx, publishers.NewEvent(r.imp.ID, feedID, remoteID, contentType, action))
	if err != nil {
		e.log.WarnObj("event delivery incomplete", "remote_id", remoteID)
	}
	r.stats.Published += n
}

// fetchMessage renders a user-facing explanation for a Mercury fetch failure.
func fetchMessage(err error, kind mercury.Kind, id string) string {
	switch mercury.OutcomeOf(err) {
	case mercury.OutcomeNotFound:
		return fmt.Sprintf("the %s (%s) was not found on the Mercury server", kind, id)
	case mercury.OutcomeForbidden:
		return fmt.Sprintf("access to the %s (%s) is restricted", kind, id)
	case mercury.OutcomeUnpublished:
		return fmt.Sprintf("the %s (%s) is unpublished on the Mercury server", kind, id)
	case mercury.OutcomeUpstreamUnavailable:
		return "the Mercury server is offline or unreachable"
	case mercury.OutcomeTimeout:
		return fmt.Sprintf("the request for the %s (%s) timed out; consider raising the request timeout", kind, id)
	case mercury.OutcomeEmptyResponse:
		return fmt.Sprintf("Mercury returned an empty response for the %s (%s)", kind, id)
	default:
		return fmt.Sprintf("fetching the %s (%s) failed: %v", kind, id, err)
	}
}
