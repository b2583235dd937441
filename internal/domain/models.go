package domain

import "time"

// Domain contains core models shared between the decoder, the mappers, and
// the reconciliation engine.

// Value is one node of a decoded Mercury payload tree.
// Concrete kinds are Scalar, List, and Map.
type Value interface {
	isValue()
}

// Scalar is a leaf value (everything Mercury sends is text on the wire).
type Scalar string

// List is an ordered sequence of values.
type List []Value

// Map is a keyed collection of values.
type Map map[string]Value

func (Scalar) isValue() {}
func (List) isValue()   {}
func (Map) isValue()    {}

// String returns the scalar under key, or "" when absent or non-scalar.
func (m Map) String(key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(Scalar); ok {
			return string(s)
		}
	}
	return ""
}

// StringOr returns the scalar under key, or fallback when absent or empty.
func (m Map) StringOr(key, fallback string) string {
	if s := m.String(key); s != "" {
		return s
	}
	return fallback
}

// List returns the list under key. Collections on the wire arrive either as
// repeated siblings (already a List), as a wrapper element holding repeated
// <item> children, or as a single record; all three shapes come back as a
// List so callers can range uniformly.
func (m Map) List(key string) List {
	switch v := m[key].(type) {
	case List:
		return v
	case Map:
		if len(v) == 1 {
			if sub, ok := v["item"]; ok {
				return promoteList(sub)
			}
			if sub, ok := v["node"]; ok {
				return promoteList(sub)
			}
		}
		return List{v}
	default:
		return nil
	}
}

func promoteList(v Value) List {
	if l, ok := v.(List); ok {
		return l
	}
	return List{v}
}

// Map returns the nested map under key, or nil.
func (m Map) Map(key string) Map {
	if v, ok := m[key].(Map); ok {
		return v
	}
	return nil
}

// RemoteItem is one normalized record decoded from a Mercury payload.
type RemoteItem struct {
	RemoteID string
	Type     string
	Title    string
	Body     string
	// Changed is the raw remote last-modified stamp as Mercury sends it.
	Changed string
	// Attrs holds every other decoded attribute, keyed as on the wire.
	Attrs Map
	// Times carries event recurrences; empty for non-event types.
	Times []TimeRange
}

// TimeRange is one event occurrence, stored in UTC.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// RelatedLink is a titled URL reference attached to an item.
type RelatedLink struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// RichText is a body-like value paired with the configured text format.
type RichText struct {
	Value  string `json:"value"`
	Format string `json:"format"`
}

// MediaItem is one media reference carried inside an item payload.
type MediaItem struct {
	RemoteID string
	Kind     string // "image" or "video"
	Title    string
	Body     string
	VideoURL string
	// ImageName and ImagePath locate image bytes on the remote side.
	ImageName string
	ImagePath string
}

// FileItem is one downloadable attachment reference.
type FileItem struct {
	Name string
	Path string
}

// SyncStats summarizes one importer processing pass.
type SyncStats struct {
	ImporterID string
	Deleted    int
	Updated    int
	Created    int
	Skipped    int
	Errors     int
	Published  int
	Duration   time.Duration
}
