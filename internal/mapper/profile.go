package mapper

import (
	"context"
	"strings"

	"github.com/ocmweb/mercury-sync/internal/domain"
	"github.com/ocmweb/mercury-sync/internal/store"
)

// profileMapper maps people profiles. Profiles may reference other remote
// items through their recent-news relation; unresolved references are
// imported on the fly via the engine-supplied ImportRef.
type profileMapper struct{}

func (*profileMapper) Type() string { return "profile" }

// profileScalars maps remote attribute keys onto record field names.
var profileScalars = map[string]string{
	"alttitle":       "alternate_job_title",
	"city":           "city",
	"department":     "department",
	"fax":            "fax_number",
	"firstname":      "first_name",
	"jobtitle":       "job_title",
	"lastname":       "last_name",
	"linkedin":       "linkedin",
	"middlename":     "middle_name",
	"cell":           "mobile_phone",
	"nickname":       "nickname",
	"phone":          "phone_number",
	"primaryemail":   "primary_email",
	"research":       "research",
	"secondaryemail": "secondary_email",
	"state":          "state",
	"address":        "street_address",
	"summary":        "summary",
	"teaching":       "teaching",
	"twitter":        "twitter",
	"zipcode":        "zip_code",
}

func (m *profileMapper) BuildCreateParams(ctx context.Context, item *domain.RemoteItem, svc Services) (*store.Record, error) {
	rec := newBaseRecord(item, "", "", svc)
	m.applyProfile(ctx, rec, item, svc, "areas_of_expertise")
	return rec, nil
}

func (m *profileMapper) BuildUpdateOps(ctx context.Context, rec *store.Record, item *domain.RemoteItem, svc Services) error {
	applyBaseUpdate(rec, item, svc)
	m.applyProfile(ctx, rec, item, svc, "expertise")
	return nil
}

func (m *profileMapper) applyProfile(ctx context.Context, rec *store.Record, item *domain.RemoteItem, svc Services, expertiseKey string) {
	attrs := item.Attrs
	f := rec.Fields

	for key, field := range profileScalars {
		f[field] = attrs.String(key)
	}
	f["college_school"] = strings.TrimSpace(attrs.String("college_school"))
	f["specialty"] = strings.TrimSpace(attrs.String("specialty"))

	f["degree"] = machineName(attrs.String("degree"))
	if classifications := attrs.List("classifications"); len(classifications) > 0 {
		var keys []string
		for _, c := range classifications {
			if s, ok := c.(domain.Scalar); ok && string(s) != "" {
				keys = append(keys, machineName(string(s)))
			}
		}
		f["classifications"] = keys
	}

	f["url"] = domain.RelatedLink{URL: attrs.String("url"), Title: attrs.String("url_title")}
	if links := relatedLinks(attrs.List("related_links")); len(links) > 0 {
		f["related_links"] = links
	} else if links := relatedLinks(attrs.List("links")); len(links) > 0 {
		f["related_links"] = links
	}

	rec.TermIDs = nil
	if _, ok := attrs[expertiseKey]; ok {
		rec.TermIDs = svc.Terms.Resolve(attrs[expertiseKey], "areas_of_expertise")
	}

	rec.MediaIDs = svc.Media.Process(ctx, attrs.List("hg_media"))
	rec.FileIDs = svc.Files.Process(ctx, attrs.List("files"))

	// Recent appearances may reference items not yet imported; ImportRef
	// pulls them in, skipping references it cannot satisfy.
	if svc.ImportRef != nil {
		var refs []uint64
		for _, raw := range attrs.List("recent_news") {
			id, ok := raw.(domain.Scalar)
			if !ok || string(id) == "" {
				continue
			}
			if localID, ok := svc.ImportRef(ctx, string(id)); ok {
				refs = append(refs, localID)
			}
		}
		if len(refs) > 0 {
			f["recent_appearances"] = refs
		}
	}
}
