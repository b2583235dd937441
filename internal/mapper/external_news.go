package mapper

import (
	"context"
	"strings"

	"github.com/ocmweb/mercury-sync/internal/domain"
	"github.com/ocmweb/mercury-sync/internal/store"
)

// externalNewsMapper maps press coverage hosted elsewhere. The legacy
// hgTechInTheNews alias is rewritten to this type before mapping runs.
type externalNewsMapper struct{}

func (*externalNewsMapper) Type() string { return "external_news" }

func (m *externalNewsMapper) BuildCreateParams(ctx context.Context, item *domain.RemoteItem, svc Services) (*store.Record, error) {
	rec := newBaseRecord(item, "", "", svc)
	attrs := item.Attrs
	f := rec.Fields

	f["article_url"] = strings.TrimSpace(attrs.String("article_url"))
	f["dateline"] = dateline(attrs.String("dateline"))
	f["publication"] = attrs.String("publication")
	rec.FileIDs = svc.Files.Process(ctx, attrs.List("files"))

	return rec, nil
}

func (m *externalNewsMapper) BuildUpdateOps(ctx context.Context, rec *store.Record, item *domain.RemoteItem, svc Services) error {
	applyBaseUpdate(rec, item, svc)
	attrs := item.Attrs
	f := rec.Fields

	f["article_url"] = strings.TrimSpace(attrs.String("article_url"))
	// Update payloads carry the dateline under a different key.
	f["dateline"] = dateline(attrs.String("article_dateline"))
	f["publication"] = attrs.String("publication")
	rec.FileIDs = svc.Files.Process(ctx, attrs.List("files"))

	return nil
}
