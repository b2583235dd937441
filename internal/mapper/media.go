package mapper

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ocmweb/mercury-sync/internal/domain"
	"github.com/ocmweb/mercury-sync/internal/logger"
	"github.com/ocmweb/mercury-sync/internal/store"
	"github.com/ocmweb/mercury-sync/pkg/httpclient"
)

const maxAltTextLen = 512

// MediaService creates media entities for incoming media references and
// resolves ones that already exist.
type MediaService struct {
	store  store.ContentStore
	client httpclient.Client
	log    logger.Logger
}

// NewMediaService builds a media processor over the content store and an HTTP
// client for image downloads.
func NewMediaService(cs store.ContentStore, client httpclient.Client, log logger.Logger) *MediaService {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &MediaService{store: cs, client: client, log: log}
}

// Process resolves or creates a media entity for every reference in the raw
// hg_media list and returns their ids. Failed entries are skipped.
func (s *MediaService) Process(ctx context.Context, raw domain.List) []uint64 {
	var ids []uint64
	for _, item := range mediaItems(raw) {
		if id, found, err := s.store.LookupMedia(item.RemoteID); err == nil && found {
			ids = append(ids, id)
			continue
		}

		var (
			id  uint64
			err error
		)
		switch item.Kind {
		case "image":
			id, err = s.createImage(ctx, item)
		case "video":
			id, err = s.createVideo(item)
		default:
			continue
		}
		if err != nil {
			s.log.WarnObj("media item skipped", "media_error", map[string]any{
				"mercury_id": item.RemoteID,
				"kind":       item.Kind,
				"error":      err.Error(),
			})
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// createImage downloads the image bytes, stores the file (overwriting any
// previous asset with the same name), and creates the media entity.
func (s *MediaService) createImage(ctx context.Context, item domain.MediaItem) (uint64, error) {
	if item.ImagePath == "" {
		return 0, fmt.Errorf("image reference has no path")
	}
	data, err := s.fetch(ctx, item.ImagePath)
	if err != nil {
		return 0, err
	}
	path, err := s.store.StoreFile(item.ImageName, data)
	if err != nil {
		return 0, err
	}
	return s.store.CreateMedia(&store.MediaRecord{
		MercuryID:   item.RemoteID,
		Kind:        "image",
		Name:        item.Title,
		Description: StripTags(item.Body),
		FilePath:    path,
	})
}

// createVideo normalizes the hosting URL and creates the media entity.
func (s *MediaService) createVideo(item domain.MediaItem) (uint64, error) {
	if item.VideoURL == "" {
		return 0, fmt.Errorf("video reference has no url")
	}
	return s.store.CreateMedia(&store.MediaRecord{
		MercuryID: item.RemoteID,
		Kind:      "video",
		Name:      item.Title,
		VideoURL:  RewriteVideoURL(item.VideoURL),
	})
}

func (s *MediaService) fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := s.client.Get(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}

// mediaItems extracts media references from a raw hg_media list.
func mediaItems(raw domain.List) []domain.MediaItem {
	var out []domain.MediaItem
	for _, entry := range raw {
		m, ok := entry.(domain.Map)
		if !ok {
			continue
		}
		item := domain.MediaItem{
			RemoteID:  m.String("nid"),
			Kind:      m.String("type"),
			Title:     m.String("title"),
			Body:      m.String("body"),
			VideoURL:  m.String("video_url"),
			ImageName: m.String("image_name"),
			ImagePath: m.String("image_path"),
		}
		if item.RemoteID == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// RewriteVideoURL normalizes hosting URLs: vimeo links become player-embed
// URLs, youtube links become canonical short URLs.
func RewriteVideoURL(url string) string {
	if strings.Contains(url, "vimeo.com") {
		parts := strings.SplitN(url, "vimeo.com", 2)
		return parts[0] + "player.vimeo.com/video" + parts[1]
	}

	var id string
	if strings.Contains(url, "youtu.be") {
		parts := strings.Split(url, "youtu.be")
		id = parts[len(parts)-1]
	} else if strings.Contains(url, "youtube.com/watch?v=") {
		parts := strings.Split(url, "youtube.com/watch?v=")
		id = parts[len(parts)-1]
	} else {
		return url
	}
	return "https://youtu.be/" + strings.Trim(id, "/")
}

// StripTags flattens HTML into plain text, capped to alt-text length.
func StripTags(html string) string {
	text := html
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		text = doc.Text()
	}
	text = strings.TrimSpace(text)
	if len(text) > maxAltTextLen {
		text = text[:maxAltTextLen]
	}
	return text
}
