package store

import "time"

// Package store is the content persistence layer: imported records, taxonomy
// terms, media entities, and file assets.

// Record is one locally materialized content item.
type Record struct {
	LocalID    uint64 `json:"local_id"`
	ImporterID string `json:"importer_id"`
	RemoteID   string `json:"remote_id"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	OwnerID    string `json:"owner_id"`
	// SourceUpdated is the remote last-modified stamp as received.
	SourceUpdated string `json:"source_updated"`
	// Fields holds the type-specific mapped attributes.
	Fields map[string]any `json:"fields"`
	// TermIDs and MediaIDs reference taxonomy terms and media entities.
	TermIDs  []uint64  `json:"term_ids,omitempty"`
	MediaIDs []uint64  `json:"media_ids,omitempty"`
	FileIDs  []string  `json:"file_ids,omitempty"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

// MediaRecord is one media entity (image file or external video).
type MediaRecord struct {
	ID          uint64 `json:"id"`
	MercuryID   string `json:"mercury_id"`
	Kind        string `json:"kind"` // "image" or "video"
	Name        string `json:"name"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
}

// ContentStore is the persistence surface the reconciliation engine and the
// field mappers drive. Implementations own LocalRecord lifecycle entirely.
type ContentStore interface {
	Close() error

	// ExistsByRemoteID answers the per-id audit existence check.
	ExistsByRemoteID(remoteID string) (bool, error)
	// LookupByRemoteID returns the record imported for a remote id, if any.
	LookupByRemoteID(remoteID string) (*Record, bool, error)
	// Create persists a new record and returns its local id.
	Create(rec *Record) (uint64, error)
	// Update overwrites an existing record in place.
	Update(rec *Record) error
	// RecordsByImporter returns remote id -> local id for one importer.
	RecordsByImporter(importerID string) (map[string]uint64, error)
	// DeleteBatch removes records by remote id in one best-effort pass.
	DeleteBatch(remoteIDs []string) error
	// CountByImporter counts records belonging to one importer.
	CountByImporter(importerID string) (int, error)

	// ResolveTerm returns the term id for (name, vocabulary), creating it
	// when absent.
	ResolveTerm(name, vocabulary string) (uint64, error)

	// LookupMedia returns the media entity imported for a mercury id, if any.
	LookupMedia(mercuryID string) (uint64, bool, error)
	// CreateMedia persists a new media entity and returns its id.
	CreateMedia(m *MediaRecord) (uint64, error)
	// DeleteMedia removes one media entity by id.
	DeleteMedia(id uint64) error

	// StoreFile writes file bytes under the media directory, overwriting any
	// previous asset with the same name, and returns the stored path.
	StoreFile(name string, data []byte) (string, error)
}
