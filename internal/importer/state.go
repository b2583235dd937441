package importer

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	stateBucket    = "importer_state"
	stampValueSize = 8
)

// StateStore persists importer last-run stamps. It shares the content store's
// database file.
type StateStore struct {
	db *bolt.DB
}

// NewStateStore initializes the state bucket on an open database.
func NewStateStore(db *bolt.DB) (*StateStore, error) {
	if db == nil {
		return nil, fmt.Errorf("state store requires an open database")
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(stateBucket))
		return err
	}); err != nil {
		return nil, fmt.Errorf("init state bucket: %w", err)
	}
	return &StateStore{db: db}, nil
}

// LastRun returns the stored stamp for the importer; the zero time when the
// importer has never run.
func (s *StateStore) LastRun(importerID string) (time.Time, error) {
	var stamp time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(stateBucket)).Get([]byte(importerID))
		if len(raw) != stampValueSize {
			return nil
		}
		unix := int64(binary.BigEndian.Uint64(raw))
		if unix > 0 {
			stamp = time.Unix(unix, 0).UTC()
		}
		return nil
	})
	return stamp, err
}

// SetLastRun persists the stamp for the importer.
func (s *StateStore) SetLastRun(importerID string, t time.Time) error {
	buf := make([]byte, stampValueSize)
	binary.BigEndian.PutUint64(buf, uint64(t.Unix()))
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(stateBucket)).Put([]byte(importerID), buf)
	})
}
