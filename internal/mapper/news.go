package mapper

import (
	"context"

	"github.com/ocmweb/mercury-sync/internal/domain"
	"github.com/ocmweb/mercury-sync/internal/store"
)

// newsMapper maps campus news releases.
type newsMapper struct{}

func (*newsMapper) Type() string { return "news" }

func (m *newsMapper) BuildCreateParams(ctx context.Context, item *domain.RemoteItem, svc Services) (*store.Record, error) {
	rec := newBaseRecord(item, "", "", svc)
	attrs := item.Attrs
	f := rec.Fields

	f["dateline"] = dateline(attrs.String("dateline"))
	f["email"] = attrs.String("email")
	f["location"] = attrs.String("location")
	f["subtitle"] = attrs.String("subtitle")
	f["sentence"] = attrs.String("sentence")
	f["contact"] = richText(attrs.String("contact"), svc.TextFormat)
	f["summary"] = richText(attrs.String("summary"), svc.TextFormat)
	f["sidebar"] = richText(attrs.String("sidebar"), svc.TextFormat)

	if links := relatedLinks(attrs.List("related_links")); len(links) > 0 {
		f["related_links"] = links
	}

	rec.TermIDs = append(rec.TermIDs, svc.Terms.Resolve(attrs["keywords"], "keywords")...)
	rec.TermIDs = append(rec.TermIDs, svc.Terms.Resolve(attrs["categories"], "categories")...)
	if _, ok := attrs["news_room_topics"]; ok {
		rec.TermIDs = append(rec.TermIDs, svc.Terms.Resolve(attrs["news_room_topics"], "news_room_topics")...)
	}
	if _, ok := attrs["core_research_areas"]; ok {
		rec.TermIDs = append(rec.TermIDs, svc.Terms.Resolve(attrs["core_research_areas"], "core_research_areas")...)
	}

	rec.MediaIDs = svc.Media.Process(ctx, attrs.List("hg_media"))
	rec.FileIDs = svc.Files.Process(ctx, attrs.List("files"))

	return rec, nil
}

func (m *newsMapper) BuildUpdateOps(ctx context.Context, rec *store.Record, item *domain.RemoteItem, svc Services) error {
	applyBaseUpdate(rec, item, svc)
	attrs := item.Attrs
	f := rec.Fields

	f["dateline"] = dateline(attrs.String("dateline"))
	// Update payloads carry the contact address under a different key.
	f["email"] = attrs.String("contact_email")
	f["location"] = attrs.String("location")
	f["subtitle"] = attrs.String("subtitle")
	f["sentence"] = attrs.String("sentence")
	f["contact"] = richText(attrs.String("contact"), svc.TextFormat)
	f["summary"] = richText(attrs.String("summary"), svc.TextFormat)
	f["sidebar"] = richText(attrs.String("sidebar"), svc.TextFormat)

	if links := relatedLinks(attrs.List("links")); len(links) > 0 {
		f["related_links"] = links
	}

	rec.TermIDs = nil
	rec.TermIDs = append(rec.TermIDs, svc.Terms.Resolve(attrs["keywords"], "keywords")...)
	rec.TermIDs = append(rec.TermIDs, svc.Terms.Resolve(attrs["categories"], "categories")...)
	rec.TermIDs = append(rec.TermIDs, svc.Terms.Resolve(attrs["core_research_areas"], "core_research_areas")...)
	rec.TermIDs = append(rec.TermIDs, svc.Terms.Resolve(attrs["news_room_topics"], "news_room_topics")...)

	rec.MediaIDs = svc.Media.Process(ctx, attrs.List("hg_media"))
	rec.FileIDs = svc.Files.Process(ctx, attrs.List("files"))

	return nil
}
