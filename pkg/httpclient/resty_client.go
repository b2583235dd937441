package httpclient

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options tunes the underlying transport.
type Options struct {
	// Timeout bounds the whole request; ConnectTimeout bounds dialing only.
	Timeout        time.Duration
	ConnectTimeout time.Duration
	// MaxRedirects bounds redirect following; 0 disables redirects entirely.
	MaxRedirects int
	UserAgent    string
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(Options{Timeout: timeout, MaxRedirects: 10})}
}

// NewRestyClientWithOptions creates a RestyClient from explicit options.
func NewRestyClientWithOptions(opts Options) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(opts)}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(Options{Timeout: timeout, MaxRedirects: 10})
}

// newRestyBaseClient creates a new resty.Client from the given options.
func newRestyBaseClient(opts Options) *resty.Client {
	c := resty.New()
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	if opts.ConnectTimeout > 0 {
		c.SetTransport(&http.Transport{
			DialContext: (&net.Dialer{
				Timeout: opts.ConnectTimeout,
			}).DialContext,
		})
	}
	if opts.MaxRedirects > 0 {
		c.SetRedirectPolicy(resty.FlexibleRedirectPolicy(opts.MaxRedirects))
	} else {
		c.SetRedirectPolicy(resty.NoRedirectPolicy())
	}
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}
	return c
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
