package wordpress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"DigiiBuz/internal/domain"
	"DigiiBuz/internal/ports"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxBodyBytes     = 1 << 20
	maxImageBytes    = 20 << 20
)

var errTooManyRedirects = errors.New("maximum number of redirects exceeded")

// Options bounds every call made to a tenant site.
type Options struct {
	ProbeTimeout   time.Duration
	PublishTimeout time.Duration
	MediaTimeout   time.Duration
	PreflightDelay time.Duration
	MaxRedirects   int
	UserAgent      string
}

func (o Options) withDefaults() Options {
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = 10 * time.Second
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = 15 * time.Second
	}
	if o.MediaTimeout <= 0 {
		o.MediaTimeout = 30 * time.Second
	}
	if o.MaxRedirects <= 0 {
		o.MaxRedirects = 5
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	return o
}

// Client talks to the WordPress REST API of tenant sites. It implements
// probing, media upload, publication and category listing.
type Client struct {
	http   *http.Client
	opts   Options
	logger *slog.Logger
}

var (
	_ ports.EndpointProber = (*Client)(nil)
	_ ports.MediaUploader  = (*Client)(nil)
	_ ports.PostPublisher  = (*Client)(nil)
	_ ports.CategoryLister = (*Client)(nil)
)

// NewClient wires an HTTP client; timeouts are applied per call through the
// request context.
func NewClient(httpClient *http.Client, opts Options, logger *slog.Logger) *Client {
	opts = opts.withDefaults()
	hc := http.Client{}
	if httpClient != nil {
		hc = *httpClient
	}
	limit := opts.MaxRedirects
	hc.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) > limit {
			return errTooManyRedirects
		}
		return nil
	}
	return &Client{http: &hc, opts: opts, logger: logger}
}

func (c *Client) newRequest(ctx context.Context, method, url, site string, body io.Reader, auth domain.Credentials) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
	if site != "" {
		req.Header.Set("Referer", domain.NormalizeSiteURL(site)+"/wp-admin/")
		req.Header.Set("Origin", domain.NormalizeSiteURL(site))
	}
	if header := auth.Header(); header != "" {
		req.Header.Set("Authorization", header)
	}
	return req, nil
}

// preflight waits the configured delay so bursts do not trip rate-based WAF rules.
func (c *Client) preflight(ctx context.Context) error {
	if c.opts.PreflightDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.opts.PreflightDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func readBody(resp *http.Response, limit int64) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
