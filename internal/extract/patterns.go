// internal/extract/patterns.go
package extract

import "regexp"

// pattern is one independent matcher strategy. Strategies are kept in ordered
// lists so adding or removing a site-specific pattern never touches control
// flow.
type pattern struct {
	name string
	re   *regexp.Regexp
}

// matches returns every URL the pattern finds in content, in match order.
// Patterns with a capture group yield the group; bare-URL patterns yield the
// whole match.
func (p pattern) matches(content string) []string {
	var out []string
	for _, m := range p.re.FindAllStringSubmatch(content, -1) {
		if len(m) > 1 && m[1] != "" {
			out = append(out, m[1])
		} else {
			out = append(out, m[0])
		}
	}
	return out
}

// first returns the first URL the pattern finds, or "" when none match.
func (p pattern) first(content string) string {
	m := p.re.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	if len(m) > 1 && m[1] != "" {
		return m[1]
	}
	return m[0]
}

// scriptPatterns locate video URLs inside script blocks, in priority order:
// player-configuration calls, JSON fields, file assignments, then bare URLs.
var scriptPatterns = []pattern{
	{"player_call", regexp.MustCompile(`(?i)htmlplayer\.setVideoUrl\("([^"]+)"\)`)},
	{"video_url_field", regexp.MustCompile(`(?i)"video_url":"([^"]+)"`)},
	{"file_assignment", regexp.MustCompile(`(?i)file:\s*"([^"]+)"`)},
	{"bare_url", regexp.MustCompile(`(?i)https?://[^\s<>"]*\.(?:mp4|mpd)[^\s<>"]*`)},
}

// embedPatterns recover the real media URL from an embed-player page. The
// first pattern that matches wins.
var embedPatterns = []pattern{
	{"file_assignment", regexp.MustCompile(`file:\s*"([^"]+)"`)},
	{"source_tag", regexp.MustCompile(`<source\s+src="([^"]+)"`)},
	{"file_url_field", regexp.MustCompile(`"fileURL":"([^"]+)"`)},
	{"bare_url", regexp.MustCompile("(https?://[^\\s\"'<>`]+?\\.(?:mp4|m3u8|mkv|webm)[^\\s\"'<>`]*)")},
}

// videoFileRef matches tag attributes pointing at a video file, optionally
// followed by a query string.
var videoFileRef = regexp.MustCompile(`(?i)\.(mp4|mpd)(\?.*)?$`)
