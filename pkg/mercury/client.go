package mercury

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ocmweb/mercury-sync/pkg/httpclient"
)

// Version identifies this reader in the Mercury request user agent.
const Version = "1.0.0"

// Kind selects which Mercury endpoint a pull hits.
type Kind string

const (
	KindFeed  Kind = "feed"
	KindItem  Kind = "item"
	KindFile  Kind = "file"
	KindImage Kind = "image"
)

// Client is the remote feed service surface the reconciliation engine uses.
type Client interface {
	// ItemList returns the full current membership of a feed.
	ItemList(ctx context.Context, feedID string) ([]string, error)
	// DeletedList returns every remote id deleted upstream within the
	// service's tombstone window, keyed by id with content type as value.
	DeletedList(ctx context.Context) (map[string]string, error)
	// UpdatedList returns remote ids changed since the given time.
	UpdatedList(ctx context.Context, since time.Time) ([]string, error)
	// Pull fetches the raw payload for one entity. option carries the image
	// preset for KindImage and is ignored otherwise.
	Pull(ctx context.Context, id string, kind Kind, option string) ([]byte, error)
}

// HTTPClient talks to a Mercury instance over HTTP.
type HTTPClient struct {
	baseURL string
	client  httpclient.Client
}

// Options configures a Mercury HTTP client.
type Options struct {
	BaseURL        string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

// NewHTTPClient builds a Mercury client with bounded connect and request
// timeouts and bounded redirect following.
func NewHTTPClient(opts Options) *HTTPClient {
	host, _ := os.Hostname()
	return &HTTPClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client: httpclient.NewRestyClientWithOptions(httpclient.Options{
			Timeout:        opts.RequestTimeout,
			ConnectTimeout: opts.ConnectTimeout,
			MaxRedirects:   10,
			UserAgent:      fmt.Sprintf("mercury-sync / %s / %s", Version, host),
		}),
	}
}

// NewHTTPClientWith builds a Mercury client over an injected transport; used in tests.
func NewHTTPClientWith(baseURL string, client httpclient.Client) *HTTPClient {
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// ItemList fetches the feed receipt: the ids of everything currently in the feed.
func (c *HTTPClient) ItemList(ctx context.Context, feedID string) ([]string, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/ajax/hg/%s/list", c.baseURL, feedID), KindFeed, feedID)
	if err != nil {
		return nil, err
	}
	ids, err := decodeIDList(body)
	if err != nil {
		return nil, &FetchError{Outcome: OutcomeTransportError, Kind: KindFeed, ID: feedID, Err: fmt.Errorf("decode item list: %w", err)}
	}
	return ids, nil
}

// DeletedList fetches the global deletion tracker.
func (c *HTTPClient) DeletedList(ctx context.Context) (map[string]string, error) {
	body, err := c.get(ctx, c.baseURL+"/deltracker/json", KindFeed, "deltracker")
	if err != nil {
		return nil, err
	}
	deleted := make(map[string]string)
	if err := json.Unmarshal(body, &deleted); err != nil {
		return nil, &FetchError{Outcome: OutcomeTransportError, Kind: KindFeed, ID: "deltracker", Err: fmt.Errorf("decode deletion tracker: %w", err)}
	}
	return deleted, nil
}

// UpdatedList fetches ids updated since the given time.
func (c *HTTPClient) UpdatedList(ctx context.Context, since time.Time) ([]string, error) {
	url := fmt.Sprintf("%s/uptracker/json/%d", c.baseURL, since.Unix())
	body, err := c.get(ctx, url, KindFeed, "uptracker")
	if err != nil {
		return nil, err
	}
	ids, err := decodeIDList(body)
	if err != nil {
		return nil, &FetchError{Outcome: OutcomeTransportError, Kind: KindFeed, ID: "uptracker", Err: fmt.Errorf("decode update list: %w", err)}
	}
	return ids, nil
}

// Pull fetches the raw payload for one entity.
func (c *HTTPClient) Pull(ctx context.Context, id string, kind Kind, option string) ([]byte, error) {
	var url string
	switch kind {
	case KindFeed, KindItem:
		url = fmt.Sprintf("%s/xml/%s", c.baseURL, id)
	case KindFile:
		url = fmt.Sprintf("%s/hgfile/%s", c.baseURL, id)
	case KindImage:
		url = fmt.Sprintf("%s/hgimage/%s/%s", c.baseURL, id, option)
	default:
		return nil, fmt.Errorf("unsupported pull kind %q", kind)
	}
	return c.get(ctx, url, kind, id)
}

// get issues the request and folds transport and status handling into one
// classified outcome.
func (c *HTTPClient) get(ctx context.Context, url string, kind Kind, id string) ([]byte, error) {
	resp, err := c.client.Get(ctx, url, nil)
	if err != nil {
		return nil, &FetchError{Outcome: classifyTransport(err), Kind: kind, ID: id, Err: err}
	}

	body := resp.Body()
	if outcome := classifyStatus(resp.StatusCode(), body); outcome != OutcomeSuccess {
		return nil, &FetchError{
			Outcome: outcome,
			Kind:    kind,
			ID:      id,
			Err:     fmt.Errorf("http status %d", resp.StatusCode()),
		}
	}
	return body, nil
}

// decodeIDList parses a JSON array of ids that may arrive as numbers or strings.
func decodeIDList(body []byte) ([]string, error) {
	var raw []json.Number
	if err := json.Unmarshal(body, &raw); err != nil {
		var asStrings []string
		if err2 := json.Unmarshal(body, &asStrings); err2 != nil {
			return nil, err
		}
		return asStrings, nil
	}
	ids := make([]string, 0, len(raw))
	for _, n := range raw {
		ids = append(ids, n.String())
	}
	return ids, nil
}
