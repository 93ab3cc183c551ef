// pkg/types/types.go
package types

import (
	"fmt"
	"net/url"
	"strings"
)

// Mode selects which pipeline a job runs.
type Mode string

const (
	// ModeVideoLinks extracts machine-readable video links from pages and
	// returns them as a text artifact.
	ModeVideoLinks Mode = "video_links"

	// ModeMediaScraper extracts media from pages, downloads the new items
	// and relays them to the delivery channel.
	ModeMediaScraper Mode = "media_scraper"
)

// ParseMode converts a string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeVideoLinks:
		return ModeVideoLinks, nil
	case ModeMediaScraper:
		return ModeMediaScraper, nil
	default:
		return "", fmt.Errorf("unknown mode: %q", s)
	}
}

// MediaKind classifies a discovered media reference.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindGif   MediaKind = "gif"
	KindVideo MediaKind = "video"
)

// MediaRef is a discovered, absolute media URL plus its kind. Equality is by
// normalized absolute URL.
type MediaRef struct {
	Kind MediaKind `json:"kind"`
	URL  string    `json:"url"`
}

// PageMedia holds the media references extracted from a single page, already
// deduplicated within the page and capped per kind, plus an optional link to
// the next page of the same listing.
type PageMedia struct {
	Images   []string `json:"images"`
	Gifs     []string `json:"gifs"`
	Videos   []string `json:"videos"`
	NextPage string   `json:"next_page,omitempty"`
}

// Total returns the number of references across all kinds.
func (p PageMedia) Total() int {
	return len(p.Images) + len(p.Gifs) + len(p.Videos)
}

// VideoLink is a single video-links-mode result.
type VideoLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// OutcomeKind is the terminal state of a job.
type OutcomeKind string

const (
	OutcomeCompleted OutcomeKind = "completed"
	OutcomeCancelled OutcomeKind = "cancelled"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome describes how a job ended. Message is only populated for failures
// and is truncated at the job boundary.
type Outcome struct {
	Kind    OutcomeKind `json:"kind"`
	Message string      `json:"message,omitempty"`
}

// Completed returns a successful outcome.
func Completed() Outcome { return Outcome{Kind: OutcomeCompleted} }

// Cancelled returns a cancelled outcome.
func Cancelled() Outcome { return Outcome{Kind: OutcomeCancelled} }

// Failed returns a failed outcome with the message truncated to max runes.
func Failed(msg string, max int) Outcome {
	if max > 0 {
		runes := []rune(msg)
		if len(runes) > max {
			msg = string(runes[:max])
		}
	}
	return Outcome{Kind: OutcomeFailed, Message: msg}
}

// NormalizeSeed ensures a seed URL carries a scheme so it can be fetched.
func NormalizeSeed(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// AbsoluteURL resolves ref against base the way a browser would: absolute URLs
// pass through, scheme-relative URLs adopt https, everything else resolves
// against the base document URL. Returns empty when ref cannot produce a
// usable absolute URL.
func AbsoluteURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	resolved := baseURL.ResolveReference(refURL)
	if resolved.Scheme == "" || resolved.Host == "" {
		return ""
	}
	return resolved.String()
}
