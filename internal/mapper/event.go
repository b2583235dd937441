package mapper

import (
	"context"
	"fmt"

	"github.com/ocmweb/mercury-sync/internal/domain"
	"github.com/ocmweb/mercury-sync/internal/store"
)

// eventMapper maps campus events. Recurring events are expanded by the
// engine before creation, so each record maps exactly one occurrence.
type eventMapper struct{}

func (*eventMapper) Type() string { return "event" }

func (m *eventMapper) BuildCreateParams(ctx context.Context, item *domain.RemoteItem, svc Services) (*store.Record, error) {
	if len(item.Times) == 0 {
		return nil, fmt.Errorf("event %s carries no occurrence time", item.RemoteID)
	}

	rec := newBaseRecord(item, "", "", svc)
	attrs := item.Attrs
	f := rec.Fields

	f["fee"] = attrs.String("event_fee")
	f["location"] = attrs.String("event_location")
	f["location_email"] = attrs.String("event_email")
	f["location_phone"] = attrs.String("phone")
	f["location_url"] = domain.RelatedLink{
		URL:   ensureHTTP(attrs.String("event_url")),
		Title: attrs.String("event_url_title"),
	}
	f["sentence"] = attrs.String("sentence")
	f["contact"] = richText(attrs.String("contact"), svc.TextFormat)
	f["summary"] = richText(attrs.String("summary"), svc.TextFormat)
	f["event_time"] = item.Times[0]

	if extras := scalarList(attrs.List("event_extras"), "extra"); len(extras) > 0 {
		f["extras"] = extras
	}
	if groups := scalarList(attrs.List("groups"), "name"); len(groups) > 0 {
		f["groups"] = groups
	}
	if links := relatedLinks(attrs.List("related_links")); len(links) > 0 {
		f["related_links"] = links
	}

	rec.TermIDs = append(rec.TermIDs, svc.Terms.Resolve(attrs["keywords"], "keywords")...)
	rec.TermIDs = append(rec.TermIDs, svc.Terms.Resolve(attrs["categories"], "event_categories")...)
	rec.TermIDs = append(rec.TermIDs, svc.Terms.Resolve(attrs["hg_invited_audience"], "invited_audience")...)

	rec.MediaIDs = svc.Media.Process(ctx, attrs.List("hg_media"))
	rec.FileIDs = svc.Files.Process(ctx, attrs.List("files"))

	return rec, nil
}

func (m *eventMapper) BuildUpdateOps(ctx context.Context, rec *store.Record, item *domain.RemoteItem, svc Services) error {
	applyBaseUpdate(rec, item, svc)
	attrs := item.Attrs
	f := rec.Fields

	f["fee"] = attrs.String("fee")
	f["location"] = attrs.String("location")
	f["location_email"] = attrs.String("locationemail")
	f["location_phone"] = attrs.String("locationphone")
	f["location_url"] = domain.RelatedLink{
		URL:   ensureHTTP(attrs.String("locationurl")),
		Title: attrs.String("locationurltitle"),
	}
	f["sentence"] = attrs.String("sentence")
	f["contact"] = richText(attrs.String("contact"), svc.TextFormat)
	f["summary"] = richText(attrs.String("summary"), svc.TextFormat)

	if len(item.Times) > 0 {
		f["event_time"] = item.Times[0]
	}
	if extras := scalarList(attrs.List("extras"), "extra"); len(extras) > 0 {
		f["extras"] = extras
	}
	if groups := scalarList(attrs.List("groups"), "name"); len(groups) > 0 {
		f["groups"] = groups
	}
	if links := relatedLinks(attrs.List("links")); len(links) > 0 {
		f["related_links"] = links
	}

	rec.TermIDs = nil
	rec.TermIDs = append(rec.TermIDs, svc.Terms.Resolve(attrs["keywords"], "keywords")...)
	rec.TermIDs = append(rec.TermIDs, svc.Terms.Resolve(attrs["event_categories"], "event_categories")...)
	rec.TermIDs = append(rec.TermIDs, svc.Terms.Resolve(attrs["hg_invited_audience"], "invited_audience")...)

	rec.MediaIDs = svc.Media.Process(ctx, attrs.List("hg_media"))
	rec.FileIDs = svc.Files.Process(ctx, attrs.List("files"))

	return nil
}
