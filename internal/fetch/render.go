// internal/fetch/render.go
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"mediagrab/internal/config"
)

// ChromeRenderer implements Renderer with a headless Chrome session. Some
// hosts inject their media elements client-side; rendering recovers markup the
// plain HTTP path never sees.
type ChromeRenderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	userAgent   string
	logger      zerolog.Logger
}

// NewChromeRenderer creates a renderer with a shared Chrome allocator.
func NewChromeRenderer(cfg config.FetchConfig, logger zerolog.Logger) *ChromeRenderer {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // required for container environments
		chromedp.Headless,
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromeRenderer{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		timeout:     cfg.RenderTimeout.Duration,
		userAgent:   cfg.UserAgent,
		logger:      logger.With().Str("component", "render").Logger(),
	}
}

// Render navigates to the URL and returns the outer HTML of the final DOM.
func (r *ChromeRenderer) Render(parentCtx context.Context, pageURL string) (string, error) {
	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx)
	defer tabCancel()

	ctx := tabCtx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(tabCtx, r.timeout)
		defer cancel()
	}

	// Honor caller cancellation alongside the render timeout.
	go func() {
		select {
		case <-parentCtx.Done():
			tabCancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	var html string
	err := chromedp.Run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}

	r.logger.Debug().
		Str("url", pageURL).
		Dur("elapsed", time.Since(start)).
		Int("bytes", len(html)).
		Msg("page rendered")

	return html, nil
}

// Close releases the Chrome allocator.
func (r *ChromeRenderer) Close() error {
	r.allocCancel()
	return nil
}
