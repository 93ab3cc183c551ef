// internal/extract/extract_test.go
package extract

import (
	"fmt"
	"strings"
	"testing"

	"mediagrab/internal/config"
)

func testExtractor() *Extractor {
	cfg := config.Default()
	return New(cfg.Extract)
}

func TestVideoLinks_ScriptPatterns(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{
			name:   "player call",
			script: `htmlplayer.setVideoUrl("http://cdn.example.com/v1.mp4")`,
			want:   "http://cdn.example.com/v1.mp4",
		},
		{
			name:   "video_url json field",
			script: `var cfg = {"video_url":"http://cdn.example.com/v2.mp4"};`,
			want:   "http://cdn.example.com/v2.mp4",
		},
		{
			name:   "file assignment",
			script: `jwplayer().setup({ file: "http://cdn.example.com/v3.mp4" });`,
			want:   "http://cdn.example.com/v3.mp4",
		},
		{
			name:   "bare url",
			script: `preload("http://cdn.example.com/v4.mp4?token=1")`,
			want:   "http://cdn.example.com/v4.mp4?token=1",
		},
	}

	e := testExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := fmt.Sprintf(`<html><head><title>Clip</title></head><body><script>%s</script></body></html>`, tt.script)
			links := e.VideoLinks(html, "http://site.example/page")
			if len(links) != 1 {
				t.Fatalf("expected 1 link, got %d: %v", len(links), links)
			}
			if links[0].URL != tt.want {
				t.Errorf("expected %q, got %q", tt.want, links[0].URL)
			}
			if links[0].Title != "Clip" {
				t.Errorf("expected title Clip, got %q", links[0].Title)
			}
		})
	}
}

func TestVideoLinks_UntitledDefault(t *testing.T) {
	html := `<html><body><script>file: "http://cdn/v1.mp4"</script></body></html>`
	e := testExtractor()

	links := e.VideoLinks(html, "http://site/page1")
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].Title != "Untitled" {
		t.Errorf("expected Untitled, got %q", links[0].Title)
	}
	if links[0].URL != "http://cdn/v1.mp4" {
		t.Errorf("unexpected url %q", links[0].URL)
	}
}

func TestVideoLinks_TagScan(t *testing.T) {
	html := `<html><head><title>T</title></head><body>
		<video src="/media/a.mp4"></video>
		<source src="//cdn.example.com/b.mpd">
		<a href="http://cdn.example.com/c.mp4?dl=1">download</a>
		<iframe src="http://embed.example.com/player"></iframe>
		<a href="http://cdn.example.com/page.html">not a video</a>
	</body></html>`

	e := testExtractor()
	links := e.VideoLinks(html, "http://site.example/page")

	want := []string{
		"http://site.example/media/a.mp4",
		"https://cdn.example.com/b.mpd",
		"http://cdn.example.com/c.mp4?dl=1",
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %d: %v", len(want), len(links), links)
	}
	for i, w := range want {
		if links[i].URL != w {
			t.Errorf("link %d: expected %q, got %q", i, w, links[i].URL)
		}
	}
}

func TestVideoLinks_OrderScriptsBeforeTags(t *testing.T) {
	html := `<html><body>
		<a href="http://cdn/tag.mp4">v</a>
		<script>file: "http://cdn/script.mp4"</script>
	</body></html>`

	e := testExtractor()
	links := e.VideoLinks(html, "http://site/p")
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
	if links[0].URL != "http://cdn/script.mp4" {
		t.Errorf("script matches must come first, got %q", links[0].URL)
	}
}

func TestVideoLinks_DedupAndCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body><script>")
	// The same URL repeated plus more unique ones than the cap allows.
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "file: \"http://cdn/v%d.mp4\"\nfile: \"http://cdn/v%d.mp4\"\n", i, i)
	}
	sb.WriteString("</script></body></html>")

	e := testExtractor()
	links := e.VideoLinks(sb.String(), "http://site/p")
	if len(links) != 5 {
		t.Fatalf("expected cap of 5, got %d", len(links))
	}
	for i, l := range links {
		want := fmt.Sprintf("http://cdn/v%d.mp4", i)
		if l.URL != want {
			t.Errorf("link %d: expected %q, got %q", i, want, l.URL)
		}
	}
}

func TestVideoLinks_NoMatches(t *testing.T) {
	e := testExtractor()
	links := e.VideoLinks("<html><body><p>nothing here</p></body></html>", "http://site/p")
	if len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}

func TestVideoLinks_Idempotent(t *testing.T) {
	html := `<html><head><title>X</title></head><body><script>file: "http://cdn/v.mp4"</script></body></html>`
	e := testExtractor()

	first := e.VideoLinks(html, "http://site/p")
	second := e.VideoLinks(html, "http://site/p")
	if len(first) != len(second) {
		t.Fatalf("extraction is not idempotent: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("result %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestPageMedia_Classification(t *testing.T) {
	html := `<html><body>
		<img src="/img/a.jpg">
		<img data-src="/img/lazy.PNG">
		<a href="/img/b.jpeg">b</a>
		<a href="/img/c.WEBP">c</a>
		<img src="/anim/d.gif">
		<video src="/vid/e.mp4"></video>
		<source src="/vid/f.webm">
		<a href="/vid/g.mov">g</a>
		<a href="/doc/readme.txt">not media</a>
	</body></html>`

	e := testExtractor()
	result := e.PageMedia(html, "http://site.example")

	if len(result.Media.Images) != 4 {
		t.Errorf("expected 4 images, got %d: %v", len(result.Media.Images), result.Media.Images)
	}
	if len(result.Media.Gifs) != 1 {
		t.Errorf("expected 1 gif, got %d", len(result.Media.Gifs))
	}
	if len(result.Media.Videos) != 3 {
		t.Errorf("expected 3 videos, got %d: %v", len(result.Media.Videos), result.Media.Videos)
	}
}

func TestPageMedia_CaseInsensitiveExtensions(t *testing.T) {
	e := testExtractor()
	for _, u := range []string{"http://x.com/a.jpg", "HTTP://X.COM/A.JPG", "http://x.com/A.JpG"} {
		html := fmt.Sprintf(`<html><body><img src="%s"></body></html>`, u)
		result := e.PageMedia(html, "http://x.com")
		if len(result.Media.Images) != 1 {
			t.Errorf("URL %q should classify as image, got %+v", u, result.Media)
		}
	}
}

func TestPageMedia_IgnoreSubstrings(t *testing.T) {
	html := `<html><body>
		<img src="http://site/avatars/u.jpg">
		<img src="http://site/styles/bg.png">
		<img src="http://cdninstagram.com/x.jpg">
		<img src="http://site/photos/keep.jpg">
	</body></html>`

	e := testExtractor()
	result := e.PageMedia(html, "http://site")
	if len(result.Media.Images) != 1 || result.Media.Images[0] != "http://site/photos/keep.jpg" {
		t.Errorf("ignore substrings not applied: %v", result.Media.Images)
	}
}

func TestPageMedia_Caps(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&sb, `<img src="/img/%d.jpg">`, i)
	}
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&sb, `<video src="/vid/%d.mp4"></video>`, i)
	}
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&sb, `<img src="/anim/%d.gif">`, i)
	}
	sb.WriteString("</body></html>")

	e := testExtractor()
	result := e.PageMedia(sb.String(), "http://site")

	if len(result.Media.Images) != 50 {
		t.Errorf("expected 50 images, got %d", len(result.Media.Images))
	}
	if len(result.Media.Videos) != 20 {
		t.Errorf("expected 20 videos, got %d", len(result.Media.Videos))
	}
	if len(result.Media.Gifs) != 10 {
		t.Errorf("expected 10 gifs, got %d", len(result.Media.Gifs))
	}
	// First-discovered order preserved.
	if result.Media.Images[0] != "http://site/img/0.jpg" {
		t.Errorf("expected first image to lead, got %q", result.Media.Images[0])
	}
	if result.Media.Images[49] != "http://site/img/49.jpg" {
		t.Errorf("expected image 49 last, got %q", result.Media.Images[49])
	}
}

func TestPageMedia_Dedup(t *testing.T) {
	html := `<html><body>
		<img src="/a.jpg">
		<a href="/a.jpg">same</a>
		<img src="/a.jpg">
	</body></html>`

	e := testExtractor()
	result := e.PageMedia(html, "http://site")
	if len(result.Media.Images) != 1 {
		t.Errorf("expected within-page dedup, got %v", result.Media.Images)
	}
}

func TestPageMedia_Embeds(t *testing.T) {
	html := `<html><body>
		<iframe src="http://embed.example/x"></iframe>
		<iframe src="/player/y"></iframe>
		<iframe></iframe>
	</body></html>`

	e := testExtractor()
	result := e.PageMedia(html, "http://site.example")

	want := []string{"http://embed.example/x", "http://site.example/player/y"}
	if len(result.Embeds) != len(want) {
		t.Fatalf("expected %d embeds, got %v", len(want), result.Embeds)
	}
	for i, w := range want {
		if result.Embeds[i] != w {
			t.Errorf("embed %d: expected %q, got %q", i, w, result.Embeds[i])
		}
	}
}

func TestPageMedia_NextPage(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "pagination class",
			html: `<a class="pageNav-jump--next" href="/page3">next page</a><a rel="next" href="/other">x</a>`,
			want: "http://site/page3",
		},
		{
			name: "rel next",
			html: `<a rel="next" href="/page4">more</a>`,
			want: "http://site/page4",
		},
		{
			name: "visible text",
			html: `<a href="/page5">  NEXT  </a>`,
			want: "http://site/page5",
		},
		{
			name: "no next",
			html: `<a href="/page6">previous</a>`,
			want: "",
		},
	}

	e := testExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := fmt.Sprintf("<html><body>%s</body></html>", tt.html)
			result := e.PageMedia(html, "http://site")
			if result.Media.NextPage != tt.want {
				t.Errorf("expected next page %q, got %q", tt.want, result.Media.NextPage)
			}
		})
	}
}

func TestPageMedia_EmptyPage(t *testing.T) {
	e := testExtractor()
	result := e.PageMedia("", "http://site")
	if result.Media.Total() != 0 || result.Media.NextPage != "" || len(result.Embeds) != 0 {
		t.Errorf("empty page must yield empty result: %+v", result)
	}
}
