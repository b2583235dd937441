package mapper

import (
	"context"

	"github.com/ocmweb/mercury-sync/internal/domain"
	"github.com/ocmweb/mercury-sync/internal/store"
)

// imageMapper maps standalone image items. The image bytes are not embedded
// in the XML; they are collected from the item's image path.
type imageMapper struct{}

func (*imageMapper) Type() string { return "image" }

func (m *imageMapper) BuildCreateParams(ctx context.Context, item *domain.RemoteItem, svc Services) (*store.Record, error) {
	rec := newBaseRecord(item, "", "", svc)
	m.applyImage(ctx, rec, item, svc)
	return rec, nil
}

func (m *imageMapper) BuildUpdateOps(ctx context.Context, rec *store.Record, item *domain.RemoteItem, svc Services) error {
	applyBaseUpdate(rec, item, svc)
	m.applyImage(ctx, rec, item, svc)
	return nil
}

func (m *imageMapper) applyImage(ctx context.Context, rec *store.Record, item *domain.RemoteItem, svc Services) {
	attrs := item.Attrs
	rec.MediaIDs = svc.Media.Process(ctx, domain.List{domain.Map{
		"nid":        domain.Scalar(item.RemoteID),
		"type":       domain.Scalar("image"),
		"title":      domain.Scalar(item.Title),
		"body":       domain.Scalar(item.Body),
		"image_name": attrs["image_name"],
		"image_path": attrs["image_path"],
	}})
}
