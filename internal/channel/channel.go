// Package channel defines the delivery channel abstraction the pipeline
// sends media through.
package channel

import (
	"bytes"
	"context"
	"fmt"
	"time"
)

// MaxGroupSize is the largest photo group a single SendPhotoGroup call may
// carry. Callers batch larger sets into consecutive calls.
const MaxGroupSize = 10

// Photo is an image payload ready to send. Data is rewound before every
// send attempt so a retried send re-reads the full payload.
type Photo struct {
	Name string
	Data *bytes.Reader
}

// Video is a video payload ready to send.
type Video struct {
	Name      string
	Data      *bytes.Reader
	Streaming bool
}

// Sender delivers media payloads to the destination chat. Implementations
// report channel throttling as *RateLimitedError so the caller can honor the
// requested pause instead of treating it as a failure.
type Sender interface {
	// SendPhotoGroup sends up to MaxGroupSize photos as one group.
	SendPhotoGroup(ctx context.Context, photos []Photo) error

	// SendVideo sends a single video.
	SendVideo(ctx context.Context, video Video) error

	// SendText sends a plain text message to the chat.
	SendText(ctx context.Context, text string) error

	// SendDocument sends an arbitrary file, used for run artifacts.
	SendDocument(ctx context.Context, name string, data *bytes.Reader) error
}

// RateLimitedError reports that the channel asked the sender to back off
// for RetryAfter before trying again.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("channel rate limited, retry after %s", e.RetryAfter)
}
