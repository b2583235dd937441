package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"strconv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	recordBucket = "records"
	termBucket   = "terms"
	mediaBucket  = "media"

	idValueBytes = 8
)

// BoltStore implements ContentStore backed by BoltDB plus a media directory
// on disk for file assets.
type BoltStore struct {
	db       *bolt.DB
	mediaDir string
}

// Open initializes a BoltDB-backed content store.
func Open(path, mediaDir string) (*BoltStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{recordBucket, termBucket, mediaBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &BoltStore{db: db, mediaDir: mediaDir}, nil
}

// DB exposes the underlying database so sibling state (importer last-run
// stamps) can share one file.
func (b *BoltStore) DB() *bolt.DB { return b.db }

// Close closes the BoltDB store.
func (b *BoltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// ExistsByRemoteID checks whether a record was already imported for the id.
func (b *BoltStore) ExistsByRemoteID(remoteID string) (bool, error) {
	var exists bool
	err := b.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket([]byte(recordBucket)).Get([]byte(remoteID)) != nil
		return nil
	})
	return exists, err
}

// LookupByRemoteID loads the record imported for the id, if any.
func (b *BoltStore) LookupByRemoteID(remoteID string) (*Record, bool, error) {
	var rec *Record
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(recordBucket)).Get([]byte(remoteID))
		if raw == nil {
			return nil
		}
		var r Record
		if err := json.Unmarshal(raw, &r); err != nil {
			return fmt.Errorf("decode record %s: %w", remoteID, err)
		}
		rec = &r
		return nil
	})
	if err != nil || rec == nil {
		return nil, false, err
	}
	return rec, true, nil
}

// Create persists a new record keyed by its remote id. A second record for
// the same remote id (a recurring event occurrence) gets a suffixed key so
// occurrences coexist.
func (b *BoltStore) Create(rec *Record) (uint64, error) {
	if rec == nil || rec.RemoteID == "" {
		return 0, fmt.Errorf("record requires a remote id")
	}
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(recordBucket))
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		rec.LocalID = seq
		now := time.Now().UTC()
		rec.Created = now
		rec.Updated = now
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", rec.RemoteID, err)
		}
		key := []byte(rec.RemoteID)
		if bucket.Get(key) != nil {
			key = occurrenceKey(rec.RemoteID, rec.LocalID)
		}
		return bucket.Put(key, raw)
	})
	if err != nil {
		return 0, err
	}
	return rec.LocalID, nil
}

// Update overwrites the stored record, keeping its local id and create stamp.
func (b *BoltStore) Update(rec *Record) error {
	if rec == nil || rec.RemoteID == "" {
		return fmt.Errorf("record requires a remote id")
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(recordBucket))
		key := []byte(rec.RemoteID)
		raw := bucket.Get(key)
		if raw != nil {
			var cur Record
			if err := json.Unmarshal(raw, &cur); err != nil {
				return fmt.Errorf("decode record %s: %w", rec.RemoteID, err)
			}
			if cur.LocalID != rec.LocalID {
				key = occurrenceKey(rec.RemoteID, rec.LocalID)
				raw = bucket.Get(key)
			}
		} else {
			key = occurrenceKey(rec.RemoteID, rec.LocalID)
			raw = bucket.Get(key)
		}
		if raw == nil {
			return fmt.Errorf("record %s does not exist", rec.RemoteID)
		}
		rec.Updated = time.Now().UTC()
		out, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", rec.RemoteID, err)
		}
		return bucket.Put(key, out)
	})
}

// RecordsByImporter scans for records belonging to one importer.
func (b *BoltStore) RecordsByImporter(importerID string) (map[string]uint64, error) {
	out := make(map[string]uint64)
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(recordBucket)).ForEach(func(k, v []byte) error {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decode record %s: %w", k, err)
			}
			if r.ImporterID == importerID {
				out[r.RemoteID] = r.LocalID
			}
			return nil
		})
	})
	return out, err
}

// DeleteBatch removes the given remote ids in one transaction; ids with no
// local record are skipped.
func (b *BoltStore) DeleteBatch(remoteIDs []string) error {
	if len(remoteIDs) == 0 {
		return nil
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(recordBucket))
		for _, id := range remoteIDs {
			if err := bucket.Delete([]byte(id)); err != nil {
				return err
			}
			// Sweep suffixed occurrence keys for the same remote id.
			prefix := []byte(id + "#")
			cursor := bucket.Cursor()
			for k, _ := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = cursor.Seek(prefix) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// CountByImporter counts records belonging to one importer.
func (b *BoltStore) CountByImporter(importerID string) (int, error) {
	count := 0
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(recordBucket)).ForEach(func(k, v []byte) error {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decode record %s: %w", k, err)
			}
			if r.ImporterID == importerID {
				count++
			}
			return nil
		})
	})
	return count, err
}

// ResolveTerm returns the id for (name, vocabulary), creating the term when absent.
func (b *BoltStore) ResolveTerm(name, vocabulary string) (uint64, error) {
	if name == "" || vocabulary == "" {
		return 0, fmt.Errorf("term requires name and vocabulary")
	}
	key := []byte(vocabulary + "/" + name)
	var id uint64
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(termBucket))
		if raw := bucket.Get(key); raw != nil {
			id = decodeID(raw)
			return nil
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		id = seq
		return bucket.Put(key, encodeID(seq))
	})
	return id, err
}

// LookupMedia returns the media entity id for a mercury id, if any.
func (b *BoltStore) LookupMedia(mercuryID string) (uint64, bool, error) {
	var (
		id    uint64
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(mediaBucket)).Get([]byte(mercuryID))
		if raw == nil {
			return nil
		}
		var m MediaRecord
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("decode media %s: %w", mercuryID, err)
		}
		id = m.ID
		found = true
		return nil
	})
	return id, found, err
}

// CreateMedia persists a new media entity keyed by its mercury id.
func (b *BoltStore) CreateMedia(m *MediaRecord) (uint64, error) {
	if m == nil || m.MercuryID == "" {
		return 0, fmt.Errorf("media requires a mercury id")
	}
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(mediaBucket))
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		m.ID = seq
		raw, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode media %s: %w", m.MercuryID, err)
		}
		return bucket.Put([]byte(m.MercuryID), raw)
	})
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

// DeleteMedia removes one media entity by id.
func (b *BoltStore) DeleteMedia(id uint64) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(mediaBucket))
		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var m MediaRecord
			if err := json.Unmarshal(v, &m); err != nil {
				continue
			}
			if m.ID == id {
				return cursor.Delete()
			}
		}
		return nil
	})
}

// StoreFile writes file bytes under the media directory, overwriting on conflict.
func (b *BoltStore) StoreFile(name string, data []byte) (string, error) {
	if name == "" {
		return "", fmt.Errorf("file requires a name")
	}
	if err := os.MkdirAll(b.mediaDir, 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}
	path := filepath.Join(b.mediaDir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write file %s: %w", name, err)
	}
	return path, nil
}

func occurrenceKey(remoteID string, localID uint64) []byte {
	return []byte(remoteID + "#" + strconv.FormatUint(localID, 10))
}

func encodeID(id uint64) []byte {
	buf := make([]byte, idValueBytes)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

func decodeID(raw []byte) uint64 {
	if len(raw) != idValueBytes {
		return 0
	}
	return binary.BigEndian.Uint64(raw)
}
