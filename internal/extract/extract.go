// internal/extract/extract.go
package extract

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mediagrab/internal/config"
	"mediagrab/pkg/types"
)

// Extension classification for media-scraper mode. Matching is by final path
// extension, case-insensitive.
var (
	imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}
	videoExtensions = map[string]bool{".mp4": true, ".webm": true, ".mov": true}
)

// PageResult is the outcome of a media-scraper extraction pass over one page.
// Embeds are iframe sources that still need embed resolution before they can
// become video references.
type PageResult struct {
	Media  types.PageMedia
	Embeds []string
}

// Extractor turns raw page content into typed media references. It performs
// no I/O and is a pure function of its input: feeding the same page twice
// yields the same result.
type Extractor struct {
	ignore        []string
	maxImages     int
	maxVideos     int
	maxGifs       int
	maxVideoLinks int
}

// New creates an extractor from configuration.
func New(cfg config.ExtractConfig) *Extractor {
	return &Extractor{
		ignore:        cfg.IgnoreSubstrings,
		maxImages:     cfg.MaxImages,
		maxVideos:     cfg.MaxVideos,
		maxGifs:       cfg.MaxGifs,
		maxVideoLinks: cfg.MaxVideoLinks,
	}
}

// VideoLinks extracts machine-readable video links from a page: script blocks
// first, then media/anchor/iframe tags. Results keep discovery order, are
// deduplicated by URL, and are capped. Malformed markup yields an empty list,
// never an error.
func (e *Extractor) VideoLinks(html, pageURL string) []types.VideoLink {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "Untitled"
	}

	var links []types.VideoLink
	seen := make(map[string]bool)

	add := func(raw string) {
		abs := types.AbsoluteURL(raw, pageURL)
		if abs == "" || seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, types.VideoLink{Title: title, URL: abs})
	}

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		content := s.Text()
		if content == "" {
			return
		}
		for _, p := range scriptPatterns {
			for _, m := range p.matches(content) {
				add(m)
			}
		}
	})

	doc.Find("video, source, a, iframe").Each(func(_ int, s *goquery.Selection) {
		ref, ok := s.Attr("src")
		if !ok {
			ref, ok = s.Attr("href")
		}
		if !ok || !videoFileRef.MatchString(ref) {
			return
		}
		add(ref)
	})

	if len(links) > e.maxVideoLinks {
		links = links[:e.maxVideoLinks]
	}
	return links
}

// PageMedia extracts direct media references from a page, classifies them by
// extension and locates iframe embeds and the next-page link. References are
// deduplicated per kind preserving first-seen order, then capped.
func (e *Extractor) PageMedia(html, pageURL string) PageResult {
	var result PageResult

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return result
	}

	var images, gifs, videos []string
	seenImage := make(map[string]bool)
	seenGif := make(map[string]bool)
	seenVideo := make(map[string]bool)

	doc.Find("a, img, video, source").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"href", "src", "data-src"} {
			ref, ok := s.Attr(attr)
			if !ok || ref == "" {
				continue
			}

			abs := types.AbsoluteURL(ref, pageURL)
			if abs == "" || e.ignored(abs) {
				continue
			}

			switch classify(abs) {
			case types.KindImage:
				if !seenImage[abs] {
					seenImage[abs] = true
					images = append(images, abs)
				}
			case types.KindGif:
				if !seenGif[abs] {
					seenGif[abs] = true
					gifs = append(gifs, abs)
				}
			case types.KindVideo:
				if !seenVideo[abs] {
					seenVideo[abs] = true
					videos = append(videos, abs)
				}
			}
		}
	})

	doc.Find("iframe").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			return
		}
		if abs := types.AbsoluteURL(src, pageURL); abs != "" {
			result.Embeds = append(result.Embeds, abs)
		}
	})

	result.Media = types.PageMedia{
		Images:   capped(images, e.maxImages),
		Gifs:     capped(gifs, e.maxGifs),
		Videos:   capped(videos, e.maxVideos),
		NextPage: e.nextPage(doc, pageURL),
	}
	return result
}

// MaxVideos exposes the per-page video cap so callers can enforce it after
// embed resolution appends to the video list.
func (e *Extractor) MaxVideos() int { return e.maxVideos }

// nextPage locates the next-page link: the known pagination class first, then
// rel="next", then an anchor whose visible text is exactly "Next". The first
// match wins.
func (e *Extractor) nextPage(doc *goquery.Document, pageURL string) string {
	if href, ok := doc.Find("a.pageNav-jump--next").First().Attr("href"); ok {
		return types.AbsoluteURL(href, pageURL)
	}
	if href, ok := doc.Find(`a[rel="next"]`).First().Attr("href"); ok {
		return types.AbsoluteURL(href, pageURL)
	}

	var next string
	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.Text()), "next") {
			return true
		}
		if href, ok := s.Attr("href"); ok {
			next = types.AbsoluteURL(href, pageURL)
			return false
		}
		return true
	})
	return next
}

// ignored reports whether the URL contains a configured ignore substring.
func (e *Extractor) ignored(u string) bool {
	for _, frag := range e.ignore {
		if strings.Contains(u, frag) {
			return true
		}
	}
	return false
}

// classify buckets a URL by its final path extension; empty kind means the
// URL is not a recognized media file.
func classify(rawURL string) types.MediaKind {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	switch {
	case imageExtensions[ext]:
		return types.KindImage
	case ext == ".gif":
		return types.KindGif
	case videoExtensions[ext]:
		return types.KindVideo
	default:
		return ""
	}
}

// capped truncates a slice to at most n entries preserving order.
func capped(s []string, n int) []string {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
