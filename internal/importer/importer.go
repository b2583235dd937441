package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Package importer holds feed subscription definitions (YAML/JSON) and their
// last-run state.

// Importer describes one Mercury feed subscription.
type Importer struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	FeedIDs          []string `json:"feed_ids" yaml:"feed_ids"`
	FrequencyMinutes int      `json:"frequency_minutes" yaml:"frequency_minutes"`
	TrackDeletes     bool     `json:"track_deletes" yaml:"track_deletes"`
	OwnerID          string   `json:"owner_id" yaml:"owner_id"`

	// LastRun is mutable run state, loaded from the state store rather than
	// the registry file.
	LastRun time.Time `json:"-" yaml:"-"`
}

const defaultFrequencyMinutes = 60

// Frequency returns the polling interval for the importer.
func (imp Importer) Frequency() time.Duration {
	if imp.FrequencyMinutes <= 0 {
		return defaultFrequencyMinutes * time.Minute
	}
	return time.Duration(imp.FrequencyMinutes) * time.Minute
}

// Due reports whether the importer should be processed at the given time.
// A never-run importer is always due.
func (imp Importer) Due(now time.Time) bool {
	if imp.LastRun.IsZero() {
		return true
	}
	return now.Sub(imp.LastRun) >= imp.Frequency()
}

type registryFile struct {
	Importers []Importer `json:"importers" yaml:"importers"`
}

// Registry materializes importer definitions loaded from config files.
type Registry struct {
	mu        sync.RWMutex
	importers []Importer
	idx       map[string]Importer
}

// LoadRegistry loads the importer registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("importers file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open importers file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read importers file: %w", err)
	}

	fileReg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(fileReg.Importers) == 0 {
		return nil, errors.New("importers file contains no importers entries")
	}

	reg := &Registry{
		importers: make([]Importer, len(fileReg.Importers)),
		idx:       make(map[string]Importer, len(fileReg.Importers)),
	}

	for i := range fileReg.Importers {
		imp := sanitizeImporter(fileReg.Importers[i])
		if err := validateImporter(imp); err != nil {
			return nil, fmt.Errorf("importers[%d]: %w", i, err)
		}
		if _, exists := reg.idx[imp.ID]; exists {
			return nil, fmt.Errorf("duplicate importer id %q", imp.ID)
		}
		reg.importers[i] = imp
		reg.idx[imp.ID] = imp
	}

	return reg, nil
}

// parseRegistry attempts to decode the importers file content.
func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg registryFile
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("importers file format not recognized (expected YAML or JSON)")
}

func sanitizeImporter(imp Importer) Importer {
	imp.ID = strings.TrimSpace(imp.ID)
	imp.Name = strings.TrimSpace(imp.Name)
	imp.OwnerID = strings.TrimSpace(imp.OwnerID)

	feedIDs := make([]string, 0, len(imp.FeedIDs))
	for _, fid := range imp.FeedIDs {
		if fid = strings.TrimSpace(fid); fid != "" {
			feedIDs = append(feedIDs, fid)
		}
	}
	imp.FeedIDs = feedIDs

	if imp.FrequencyMinutes <= 0 {
		imp.FrequencyMinutes = defaultFrequencyMinutes
	}
	return imp
}

func validateImporter(imp Importer) error {
	if imp.ID == "" {
		return errors.New("id is required")
	}
	if imp.Name == "" {
		return fmt.Errorf("name is required for importer %q", imp.ID)
	}
	if len(imp.FeedIDs) == 0 {
		return fmt.Errorf("at least one feed id is required for importer %q", imp.ID)
	}
	return nil
}

// ByID returns the importer config by id.
func (r *Registry) ByID(id string) (Importer, bool) {
	if r == nil {
		return Importer{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return Importer{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	imp, ok := r.idx[id]
	return imp, ok
}

// All returns all configured importers.
func (r *Registry) All() []Importer {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Importer, len(r.importers))
	copy(out, r.importers)
	return out
}
