package importer

import (
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func newTestStateStore(t *testing.T) *StateStore {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "state.db"), 0o600, nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := NewStateStore(db)
	if err != nil {
		t.Fatalf("NewStateStore: %v", err)
	}
	return s
}

func TestLastRunRoundTrip(t *testing.T) {
	s := newTestStateStore(t)

	got, err := s.LastRun("campus-news")
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected zero stamp before first run, got %v", got)
	}

	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := s.SetLastRun("campus-news", stamp); err != nil {
		t.Fatalf("SetLastRun: %v", err)
	}

	got, err = s.LastRun("campus-news")
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if !got.Equal(stamp) {
		t.Fatalf("expected %v, got %v", stamp, got)
	}
}

func TestLastRunIsPerImporter(t *testing.T) {
	s := newTestStateStore(t)

	if err := s.SetLastRun("a", time.Unix(1700000000, 0)); err != nil {
		t.Fatalf("SetLastRun: %v", err)
	}
	got, err := s.LastRun("b")
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected importer b to have no stamp, got %v", got)
	}
}
