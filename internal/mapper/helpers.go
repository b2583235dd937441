package mapper

import (
	"regexp"
	"strings"

	"github.com/ocmweb/mercury-sync/internal/domain"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// machineName lowercases a label and collapses whitespace runs to underscores,
// matching how degree and classification taxonomy keys are stored.
func machineName(s string) string {
	return strings.ToLower(whitespaceRun.ReplaceAllString(strings.TrimSpace(s), "_"))
}

// dateline trims a remote dateline to its date part (first ten characters).
func dateline(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

// ensureHTTP prefixes bare host URLs the way the event location field expects.
func ensureHTTP(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	if !strings.HasPrefix(url, "http") {
		return "http://" + url
	}
	return url
}

// relatedLinks extracts {url, title} entries from a raw link list.
func relatedLinks(raw domain.List) []domain.RelatedLink {
	var out []domain.RelatedLink
	for _, entry := range raw {
		m, ok := entry.(domain.Map)
		if !ok {
			continue
		}
		link := domain.RelatedLink{URL: m.String("url"), Title: m.String("title")}
		// Update payloads carry the same pairs under linkurl/linktitle.
		if link.URL == "" {
			link.URL = m.String("linkurl")
			link.Title = m.String("linktitle")
		}
		if link.URL == "" {
			continue
		}
		out = append(out, link)
	}
	return out
}

// scalarList flattens a raw list into the scalar under key for each entry.
func scalarList(raw domain.List, key string) []string {
	var out []string
	for _, entry := range raw {
		m, ok := entry.(domain.Map)
		if !ok {
			if s, ok := entry.(domain.Scalar); ok && string(s) != "" {
				out = append(out, string(s))
			}
			continue
		}
		if v := m.String(key); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// richText wraps a value with the configured text format.
func richText(value, format string) domain.RichText {
	return domain.RichText{Value: value, Format: format}
}
