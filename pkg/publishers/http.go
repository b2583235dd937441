package publishers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const httpPublishTimeout = 15 * time.Second

// HTTPPublisher POSTs each event as JSON to a webhook endpoint.
type HTTPPublisher struct {
	name     string
	endpoint string
	headers  map[string]string
	client   *resty.Client
	log      Logger
}

func NewHTTPPublisher(name, endpoint string, headers map[string]string, log Logger) *HTTPPublisher {
	client := resty.New().
		SetTimeout(httpPublishTimeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &HTTPPublisher{
		name:     name,
		endpoint: endpoint,
		headers:  headers,
		client:   client,
		log:      log,
	}
}

func NewHTTPPublisherFromConfig(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("http publisher %s: endpoint is required", cfg.Name)
	}
	return NewHTTPPublisher(cfg.Name, cfg.Endpoint, cfg.Headers, log), nil
}

func (p *HTTPPublisher) Name() string { return p.name }

func (p *HTTPPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeaders(p.headers).
		SetBody(evt).
		Post(p.endpoint)
	if err != nil {
		return fmt.Errorf("posting event to %s: %w", p.endpoint, err)
	}
	if resp.IsError() {
		return fmt.Errorf("endpoint %s returned status %d", p.endpoint, resp.StatusCode())
	}
	p.log.Debugf("published %s %s to %s", evt.Action, evt.RemoteID, p.endpoint)
	return nil
}

func (p *HTTPPublisher) Close() error { return nil }
