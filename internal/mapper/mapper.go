package mapper

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ocmweb/mercury-sync/internal/domain"
	"github.com/ocmweb/mercury-sync/internal/store"
)

// Package mapper translates decoded RemoteItems into content store records,
// one FieldMapper per content type.

// Services bundles the collaborators mappers need: taxonomy resolution, media
// and file processing, and the engine-supplied reference importer.
type Services struct {
	TextFormat string
	Terms      *TermService
	Media      *MediaService
	Files      *FileService
	// ImportRef resolves a cross-referenced remote item to a local id,
	// importing it first when absent. ok is false when the reference cannot
	// be satisfied (fetch failure or an import cycle).
	ImportRef func(ctx context.Context, remoteID string) (uint64, bool)
}

// FieldMapper builds creation parameters and update operations for one
// content type.
type FieldMapper interface {
	Type() string
	BuildCreateParams(ctx context.Context, item *domain.RemoteItem, svc Services) (*store.Record, error)
	BuildUpdateOps(ctx context.Context, rec *store.Record, item *domain.RemoteItem, svc Services) error
}

// Registry maps content types to field mappers.
type Registry struct {
	mu      sync.RWMutex
	mappers map[string]FieldMapper
}

// NewRegistry returns a registry with optional pre-registered mappers.
func NewRegistry(mappers ...FieldMapper) *Registry {
	r := &Registry{mappers: make(map[string]FieldMapper)}
	for _, m := range mappers {
		r.Register(m)
	}
	return r
}

// Register associates a mapper with its content type.
func (r *Registry) Register(m FieldMapper) {
	if m == nil {
		return
	}
	key := strings.ToLower(strings.TrimSpace(m.Type()))
	if key == "" {
		return
	}

	r.mu.Lock()
	r.mappers[key] = m
	r.mu.Unlock()
}

// MapperFor returns the mapper for the given content type.
func (r *Registry) MapperFor(contentType string) (FieldMapper, error) {
	if r == nil {
		return nil, fmt.Errorf("mapper registry is nil")
	}

	r.mu.RLock()
	m := r.mappers[strings.ToLower(strings.TrimSpace(contentType))]
	r.mu.RUnlock()

	if m == nil {
		return nil, fmt.Errorf("no mapper registered for content type %q", contentType)
	}
	return m, nil
}

// DefaultRegistry wires up the mappers for every supported content type.
func DefaultRegistry() *Registry {
	return NewRegistry(
		&newsMapper{},
		&externalNewsMapper{},
		&eventMapper{},
		&imageMapper{},
		&videoMapper{},
		&profileMapper{},
	)
}

// newBaseRecord builds the universal parts shared by every content type.
func newBaseRecord(item *domain.RemoteItem, importerID, ownerID string, svc Services) *store.Record {
	return &store.Record{
		ImporterID:    importerID,
		RemoteID:      item.RemoteID,
		Type:          item.Type,
		Title:         titleOr(item.Title),
		OwnerID:       ownerID,
		SourceUpdated: item.Changed,
		Fields: map[string]any{
			"body": domain.RichText{Value: item.Body, Format: svc.TextFormat},
		},
	}
}

// applyBaseUpdate refreshes the universal parts on an existing record.
func applyBaseUpdate(rec *store.Record, item *domain.RemoteItem, svc Services) {
	rec.Title = titleOr(item.Title)
	rec.SourceUpdated = item.Changed
	if rec.Fields == nil {
		rec.Fields = map[string]any{}
	}
	rec.Fields["body"] = domain.RichText{Value: item.Body, Format: svc.TextFormat}
}

func titleOr(title string) string {
	if strings.TrimSpace(title) == "" {
		return "No Title"
	}
	return title
}
