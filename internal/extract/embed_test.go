// internal/extract/embed_test.go
package extract

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

// fakeFetcher serves canned embed-page bodies keyed by URL.
type fakeFetcher struct {
	pages    map[string]string
	err      error
	referers []string
}

func (f *fakeFetcher) Binary(ctx context.Context, url, referer string) ([]byte, error) {
	f.referers = append(f.referers, referer)
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("HTTP 404: not found (URL: %s)", url)
	}
	return []byte(body), nil
}

func TestEmbedResolver_Patterns(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "file assignment",
			body: `player.setup({ file: "http://cdn.example/real.mp4" })`,
			want: "http://cdn.example/real.mp4",
		},
		{
			name: "source tag",
			body: `<video><source src="http://cdn.example/real.mp4" type="video/mp4"></video>`,
			want: "http://cdn.example/real.mp4",
		},
		{
			name: "fileURL json field",
			body: `{"fileURL":"http:\/\/cdn.example\/real.m3u8"}`,
			want: "http://cdn.example/real.m3u8",
		},
		{
			name: "bare url",
			body: `const src = 'http://cdn.example/clip.webm';`,
			want: "http://cdn.example/clip.webm",
		},
		{
			name: "relative source resolved against embed",
			body: `<source src="/videos/real.mp4">`,
			want: "http://embed.example/videos/real.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{pages: map[string]string{
				"http://embed.example/player/1": tt.body,
			}}
			resolver := NewEmbedResolver(fetcher, zerolog.Nop())

			got := resolver.Resolve(context.Background(), "http://embed.example/player/1", "http://site/page")
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEmbedResolver_FirstPatternWins(t *testing.T) {
	// Both a file: assignment and a <source> tag are present; the file:
	// pattern has priority.
	body := `<source src="http://cdn/second.mp4">
		<script>file: "http://cdn/first.mp4"</script>`
	fetcher := &fakeFetcher{pages: map[string]string{"http://embed/x": body}}
	resolver := NewEmbedResolver(fetcher, zerolog.Nop())

	got := resolver.Resolve(context.Background(), "http://embed/x", "http://site")
	if got != "http://cdn/first.mp4" {
		t.Errorf("expected file: pattern to win, got %q", got)
	}
}

func TestEmbedResolver_FetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("connection refused")}
	resolver := NewEmbedResolver(fetcher, zerolog.Nop())

	if got := resolver.Resolve(context.Background(), "http://embed/x", "http://site"); got != "" {
		t.Errorf("fetch failure must yield no result, got %q", got)
	}
}

func TestEmbedResolver_NoMatch(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"http://embed/x": "<html><body>empty</body></html>"}}
	resolver := NewEmbedResolver(fetcher, zerolog.Nop())

	if got := resolver.Resolve(context.Background(), "http://embed/x", "http://site"); got != "" {
		t.Errorf("no pattern match must yield no result, got %q", got)
	}
}

func TestEmbedResolver_SendsReferer(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"http://embed/x": `file: "http://cdn/v.mp4"`}}
	resolver := NewEmbedResolver(fetcher, zerolog.Nop())

	resolver.Resolve(context.Background(), "http://embed/x", "http://site/origin")
	if len(fetcher.referers) != 1 || fetcher.referers[0] != "http://site/origin" {
		t.Errorf("expected referring page as referer, got %v", fetcher.referers)
	}
}
