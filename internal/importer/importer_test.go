package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeRegistryFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write registry file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeRegistryFile(t, "importers.yaml", `
importers:
  - id: campus-news
    name: Campus News
    feed_ids: ["621", " 622 ", ""]
    frequency_minutes: 30
    track_deletes: true
    owner_id: "1"
  - id: campus-events
    name: Campus Events
    feed_ids: ["640"]
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.All()) != 2 {
		t.Fatalf("expected 2 importers, got %d", len(reg.All()))
	}

	imp, ok := reg.ByID("campus-news")
	if !ok {
		t.Fatalf("expected campus-news to be registered")
	}
	if len(imp.FeedIDs) != 2 || imp.FeedIDs[1] != "622" {
		t.Fatalf("expected feed ids to be trimmed and compacted, got %v", imp.FeedIDs)
	}
	if imp.Frequency() != 30*time.Minute {
		t.Fatalf("unexpected frequency %v", imp.Frequency())
	}

	events, _ := reg.ByID("campus-events")
	if events.Frequency() != 60*time.Minute {
		t.Fatalf("expected default frequency, got %v", events.Frequency())
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeRegistryFile(t, "importers.json", `{
  "importers": [
    {"id": "n", "name": "News", "feed_ids": ["1"]}
  ]
}`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if _, ok := reg.ByID("n"); !ok {
		t.Fatalf("expected importer n")
	}
}

func TestLoadRegistryRejectsDuplicates(t *testing.T) {
	path := writeRegistryFile(t, "importers.yaml", `
importers:
  - id: x
    name: One
    feed_ids: ["1"]
  - id: x
    name: Two
    feed_ids: ["2"]
`)

	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestLoadRegistryRequiresFeeds(t *testing.T) {
	path := writeRegistryFile(t, "importers.yaml", `
importers:
  - id: x
    name: One
`)

	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected missing feed ids error")
	}
}

func TestDue(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	neverRan := Importer{FrequencyMinutes: 60}
	if !neverRan.Due(now) {
		t.Fatalf("never-run importer must be due")
	}

	fresh := Importer{FrequencyMinutes: 60, LastRun: now.Add(-30 * time.Minute)}
	if fresh.Due(now) {
		t.Fatalf("importer inside its interval must not be due")
	}

	stale := Importer{FrequencyMinutes: 60, LastRun: now.Add(-2 * time.Hour)}
	if !stale.Due(now) {
		t.Fatalf("stale importer must be due")
	}
}
