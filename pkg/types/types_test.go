// pkg/types/types_test.go
package types

import (
	"strings"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"video_links", ModeVideoLinks, false},
		{"media_scraper", ModeMediaScraper, false},
		{"  Video_Links ", ModeVideoLinks, false},
		{"MEDIA_SCRAPER", ModeMediaScraper, false},
		{"", "", true},
		{"scrape", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeSeed(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"http://example.com/a", "http://example.com/a"},
		{"https://example.com/a", "https://example.com/a"},
		{"example.com/a", "https://example.com/a"},
		{"  example.com  ", "https://example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeSeed(tt.input); got != tt.want {
			t.Errorf("NormalizeSeed(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAbsoluteURL(t *testing.T) {
	base := "https://example.com/gallery/page2"

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"absolute http", "http://cdn.example.com/v.mp4", "http://cdn.example.com/v.mp4"},
		{"absolute https", "https://cdn.example.com/v.mp4", "https://cdn.example.com/v.mp4"},
		{"scheme relative", "//cdn.example.com/v.mp4", "https://cdn.example.com/v.mp4"},
		{"root relative", "/media/a.jpg", "https://example.com/media/a.jpg"},
		{"document relative", "thumbs/a.jpg", "https://example.com/gallery/thumbs/a.jpg"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AbsoluteURL(tt.ref, base); got != tt.want {
				t.Errorf("AbsoluteURL(%q, %q) = %q, want %q", tt.ref, base, got, tt.want)
			}
		})
	}
}

func TestFailedTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	out := Failed(long, 100)
	if len([]rune(out.Message)) != 100 {
		t.Errorf("expected message truncated to 100 runes, got %d", len([]rune(out.Message)))
	}
	if out.Kind != OutcomeFailed {
		t.Errorf("expected failed outcome, got %s", out.Kind)
	}

	short := Failed("boom", 100)
	if short.Message != "boom" {
		t.Errorf("short message should pass through, got %q", short.Message)
	}
}
