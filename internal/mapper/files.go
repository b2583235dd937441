package mapper

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ocmweb/mercury-sync/internal/domain"
	"github.com/ocmweb/mercury-sync/internal/logger"
	"github.com/ocmweb/mercury-sync/internal/store"
	"github.com/ocmweb/mercury-sync/pkg/httpclient"
)

// FileService downloads related-file attachments and stores them locally.
type FileService struct {
	store  store.ContentStore
	client httpclient.Client
	log    logger.Logger
}

// NewFileService builds a file processor over the content store and an HTTP
// client for downloads.
func NewFileService(cs store.ContentStore, client httpclient.Client, log logger.Logger) *FileService {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &FileService{store: cs, client: client, log: log}
}

// Process stores every attachment in the raw files list and returns the local
// paths. Entries with an empty path, and failed downloads, are skipped.
func (s *FileService) Process(ctx context.Context, raw domain.List) []string {
	var paths []string
	for _, entry := range raw {
		m, ok := entry.(domain.Map)
		if !ok {
			continue
		}
		name := m.String("filename")
		url := m.String("filepath")
		if url == "" {
			continue
		}
		path, err := s.storeOne(ctx, name, url)
		if err != nil {
			s.log.WarnObj("file attachment skipped", "file_error", map[string]any{
				"name":  name,
				"url":   url,
				"error": err.Error(),
			})
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

func (s *FileService) storeOne(ctx context.Context, name, url string) (string, error) {
	resp, err := s.client.Get(ctx, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
	}
	return s.store.StoreFile(name, resp.Body())
}
