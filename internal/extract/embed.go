// internal/extract/embed.go
package extract

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"mediagrab/pkg/types"
)

// embedFetcher is the slice of the fetch client the resolver needs.
type embedFetcher interface {
	Binary(ctx context.Context, url, referer string) ([]byte, error)
}

// EmbedResolver recovers the real media URL behind a third-party player
// iframe: one fetch of the embed page, then a secondary pattern search over
// its body. It never recurses and never lets a failure escape; an embed that
// cannot be resolved simply yields no result.
type EmbedResolver struct {
	fetcher embedFetcher
	logger  zerolog.Logger
}

// NewEmbedResolver creates an embed resolver.
func NewEmbedResolver(fetcher embedFetcher, logger zerolog.Logger) *EmbedResolver {
	return &EmbedResolver{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "embed").Logger(),
	}
}

// Resolve fetches the embed page (with the referring page as Referer) and
// applies the embed patterns in order; the first match wins. Escaped path
// separators are unescaped and the result is resolved against the embed URL.
// Returns "" when the embed cannot be resolved.
func (r *EmbedResolver) Resolve(ctx context.Context, embedURL, referer string) string {
	body, err := r.fetcher.Binary(ctx, embedURL, referer)
	if err != nil {
		r.logger.Debug().Str("embed", embedURL).Err(err).Msg("embed fetch failed")
		return ""
	}

	content := string(body)
	for _, p := range embedPatterns {
		match := p.first(content)
		if match == "" {
			continue
		}

		cleaned := strings.ReplaceAll(strings.TrimSpace(match), `\/`, "/")
		resolved := types.AbsoluteURL(cleaned, embedURL)
		if resolved == "" {
			continue
		}

		r.logger.Debug().
			Str("embed", embedURL).
			Str("pattern", p.name).
			Str("media", resolved).
			Msg("embed resolved")
		return resolved
	}

	return ""
}
