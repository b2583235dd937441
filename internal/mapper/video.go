package mapper

import (
	"context"

	"github.com/ocmweb/mercury-sync/internal/domain"
	"github.com/ocmweb/mercury-sync/internal/store"
)

// videoMapper maps standalone video items.
type videoMapper struct{}

func (*videoMapper) Type() string { return "video" }

func (m *videoMapper) BuildCreateParams(ctx context.Context, item *domain.RemoteItem, svc Services) (*store.Record, error) {
	rec := newBaseRecord(item, "", "", svc)
	rec.Fields["youtube_id"] = item.Attrs.String("youtube_id")
	return rec, nil
}

func (m *videoMapper) BuildUpdateOps(ctx context.Context, rec *store.Record, item *domain.RemoteItem, svc Services) error {
	applyBaseUpdate(rec, item, svc)
	rec.Fields["youtube_id"] = item.Attrs.String("youtube_id")
	return nil
}
