// internal/delivery/transcode.go
package delivery

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"strings"

	"golang.org/x/image/webp"
)

const jpegQuality = 90

// isWebP reports whether the payload is a WebP image, checking the URL
// extension first and falling back to sniffing the RIFF container header.
func isWebP(url string, data []byte) bool {
	lower := strings.ToLower(url)
	if idx := strings.IndexAny(lower, "?#"); idx >= 0 {
		lower = lower[:idx]
	}
	if strings.HasSuffix(lower, ".webp") {
		return true
	}
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WEBP"))
}

// webpToJPEG re-encodes a WebP payload as JPEG. The delivery channel does
// not accept WebP photos.
func webpToJPEG(data []byte) ([]byte, error) {
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode webp: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
