package store

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "content.db"), filepath.Join(dir, "media"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndLookup(t *testing.T) {
	s := newTestStore(t)

	rec := &Record{ImporterID: "campus-news", RemoteID: "100", Type: "news", Title: "A"}
	id, err := s.Create(rec)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected nonzero local id")
	}

	got, found, err := s.LookupByRemoteID("100")
	if err != nil || !found {
		t.Fatalf("LookupByRemoteID: found=%v err=%v", found, err)
	}
	if got.LocalID != id || got.Title != "A" {
		t.Fatalf("unexpected record: %+v", got)
	}

	exists, err := s.ExistsByRemoteID("100")
	if err != nil || !exists {
		t.Fatalf("ExistsByRemoteID: exists=%v err=%v", exists, err)
	}
	if exists, _ := s.ExistsByRemoteID("999"); exists {
		t.Fatalf("expected 999 to be absent")
	}
}

func TestOccurrencesCoexistAndDeleteTogether(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		rec := &Record{ImporterID: "campus-events", RemoteID: "55", Type: "event", Title: "Seminar"}
		if _, err := s.Create(rec); err != nil {
			t.Fatalf("Create occurrence %d: %v", i, err)
		}
	}

	count, err := s.CountByImporter("campus-events")
	if err != nil {
		t.Fatalf("CountByImporter: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 occurrences, got %d", count)
	}

	if err := s.DeleteBatch([]string{"55"}); err != nil {
		t.Fatalf("DeleteBatch: %v", err)
	}
	count, _ = s.CountByImporter("campus-events")
	if count != 0 {
		t.Fatalf("expected all occurrences deleted, got %d", count)
	}
}

func TestUpdateKeepsIdentity(t *testing.T) {
	s := newTestStore(t)

	rec := &Record{ImporterID: "x", RemoteID: "7", Type: "news", Title: "Old"}
	id, err := s.Create(rec)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec.Title = "New"
	if err := s.Update(rec); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _, _ := s.LookupByRemoteID("7")
	if got.LocalID != id || got.Title != "New" {
		t.Fatalf("unexpected record after update: %+v", got)
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	s := newTestStore(t)
	if err := s.Update(&Record{RemoteID: "404", LocalID: 1}); err == nil {
		t.Fatalf("expected error updating absent record")
	}
}

func TestRecordsByImporterFilters(t *testing.T) {
	s := newTestStore(t)

	for _, rec := range []*Record{
		{ImporterID: "a", RemoteID: "1", Type: "news"},
		{ImporterID: "a", RemoteID: "2", Type: "news"},
		{ImporterID: "b", RemoteID: "3", Type: "news"},
	} {
		if _, err := s.Create(rec); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	records, err := s.RecordsByImporter("a")
	if err != nil {
		t.Fatalf("RecordsByImporter: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if _, ok := records["3"]; ok {
		t.Fatalf("importer b record leaked into importer a listing")
	}
}

func TestResolveTermIsStable(t *testing.T) {
	s := newTestStore(t)

	first, err := s.ResolveTerm("Robotics", "keywords")
	if err != nil {
		t.Fatalf("ResolveTerm: %v", err)
	}
	again, err := s.ResolveTerm("Robotics", "keywords")
	if err != nil {
		t.Fatalf("ResolveTerm: %v", err)
	}
	if first != again {
		t.Fatalf("expected stable id, got %d then %d", first, again)
	}

	other, _ := s.ResolveTerm("Robotics", "categories")
	if other == first {
		t.Fatalf("expected distinct id per vocabulary")
	}
}

func TestMediaLifecycle(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateMedia(&MediaRecord{MercuryID: "900", Kind: "video", Name: "Clip", VideoURL: "https://youtu.be/x"})
	if err != nil {
		t.Fatalf("CreateMedia: %v", err)
	}

	got, found, err := s.LookupMedia("900")
	if err != nil || !found || got != id {
		t.Fatalf("LookupMedia: id=%d found=%v err=%v", got, found, err)
	}

	if err := s.DeleteMedia(id); err != nil {
		t.Fatalf("DeleteMedia: %v", err)
	}
	if _, found, _ := s.LookupMedia("900"); found {
		t.Fatalf("expected media to be deleted")
	}
}

func TestStoreFileWritesAndOverwrites(t *testing.T) {
	s := newTestStore(t)

	path, err := s.StoreFile("report.pdf", []byte("v1"))
	if err != nil {
		t.Fatalf("StoreFile: %v", err)
	}
	if _, err := s.StoreFile("../evil/../report.pdf", []byte("v2")); err != nil {
		t.Fatalf("StoreFile overwrite: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "v2" {
		t.Fatalf("expected overwrite, got %q", data)
	}
}
