// internal/fetch/fetcher.go
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"mediagrab/internal/config"
)

// MaxBodyBytes caps how much of a response is read into memory.
const MaxBodyBytes = 64 << 20 // 64 MiB

// StatusError reports a non-success HTTP status from a fetch.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (URL: %s)", e.StatusCode, e.Status, e.URL)
}

// Renderer produces the final DOM of a page after script execution. Used for
// page fetches when rendering is enabled; binary fetches never render.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Client is the single point of outbound HTTP access: page fetches and binary
// media downloads share one header profile, timeout and redirect policy. The
// client performs no retries; retry policy belongs to callers that need it.
type Client struct {
	httpClient *http.Client
	userAgent  string
	renderer   Renderer
	logger     zerolog.Logger

	// per-host pacing for page fetches
	hostInterval time.Duration
	limiters     map[string]*rate.Limiter
	limiterMu    sync.Mutex
}

// NewClient creates a fetch client from configuration.
func NewClient(cfg config.FetchConfig, logger zerolog.Logger) *Client {
	httpClient := &http.Client{
		Timeout: cfg.RequestTimeout.Duration,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		httpClient:   httpClient,
		userAgent:    cfg.UserAgent,
		hostInterval: cfg.HostInterval.Duration,
		limiters:     make(map[string]*rate.Limiter),
		logger:       logger.With().Str("component", "fetch").Logger(),
	}
}

// WithRenderer attaches a headless-browser renderer for page fetches.
func (c *Client) WithRenderer(r Renderer) *Client {
	c.renderer = r
	return c
}

// Page fetches a page and returns its content as a string. Page fetches are
// paced per host so crawling one site does not hammer it.
func (c *Client) Page(ctx context.Context, pageURL string) (string, error) {
	if err := c.waitHost(ctx, pageURL); err != nil {
		return "", err
	}

	if c.renderer != nil {
		content, err := c.renderer.Render(ctx, pageURL)
		if err != nil {
			return "", fmt.Errorf("render failed: %w", err)
		}
		return content, nil
	}

	body, err := c.get(ctx, pageURL, "")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Binary fetches binary media content. The optional referer matches the page
// the media was discovered on, which some hosts require.
func (c *Client) Binary(ctx context.Context, mediaURL, referer string) ([]byte, error) {
	return c.get(ctx, mediaURL, referer)
}

// get performs a single GET request with the shared header profile. Redirects
// are followed by the underlying client. Any non-2xx status is a *StatusError.
func (c *Client) get(ctx context.Context, targetURL, referer string) ([]byte, error) {
	if _, err := url.Parse(targetURL); err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        targetURL,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// waitHost blocks until the per-host limiter admits another page fetch.
func (c *Client) waitHost(ctx context.Context, pageURL string) error {
	if c.hostInterval <= 0 {
		return nil
	}

	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return nil // malformed URLs fail in get with a clearer error
	}

	c.limiterMu.Lock()
	limiter, ok := c.limiters[parsed.Host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(c.hostInterval), 1)
		c.limiters[parsed.Host] = limiter
	}
	c.limiterMu.Unlock()

	return limiter.Wait(ctx)
}
