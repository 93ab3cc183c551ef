// Package delivery downloads media payloads and relays them to the output
// channel, batching photos, honoring channel throttling and recording every
// delivered URL in the ledger.
package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"mediagrab/internal/channel"
	"mediagrab/internal/config"
	"mediagrab/internal/ledger"
	"mediagrab/internal/monitoring"
)

// errDropped marks a payload given up on after exhausting retries. It stays
// inside the engine: the job continues, the item just is not counted.
var errDropped = errors.New("payload dropped")

// binaryFetcher downloads a media payload.
type binaryFetcher interface {
	Binary(ctx context.Context, url, referer string) ([]byte, error)
}

// Engine drives media delivery for one output channel. Sends across all
// sessions share one rate limiter so concurrent jobs do not stack up against
// the channel's throttle.
type Engine struct {
	fetcher binaryFetcher
	ledger  ledger.Ledger
	sender  channel.Sender
	limiter *rate.Limiter
	logger  zerolog.Logger

	batchSize     int
	retryAttempts int
	retryDelay    time.Duration
}

// New creates a delivery engine.
func New(fetcher binaryFetcher, led ledger.Ledger, sender channel.Sender, cfg config.DeliveryConfig, logger zerolog.Logger) *Engine {
	batch := cfg.BatchSize
	if batch <= 0 || batch > channel.MaxGroupSize {
		batch = channel.MaxGroupSize
	}
	return &Engine{
		fetcher:       fetcher,
		ledger:        led,
		sender:        sender,
		limiter:       rate.NewLimiter(rate.Every(cfg.SendInterval.Duration), 1),
		logger:        logger.With().Str("component", "delivery").Logger(),
		batchSize:     batch,
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay.Duration,
	}
}

// DeliverImages downloads the given image URLs and sends them to the channel
// in groups of at most the configured batch size. URLs that fail to download
// are skipped. Every URL whose download succeeds is recorded in the ledger
// before its batch is sent. Returns the number of images delivered.
func (e *Engine) DeliverImages(ctx context.Context, urls []string, referer string) (int, error) {
	var batch []channel.Photo
	delivered := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		group := batch
		batch = nil
		err := e.sendWithRetry(ctx, "photo group", func() error {
			for _, p := range group {
				if _, err := p.Data.Seek(0, 0); err != nil {
					return fmt.Errorf("failed to rewind payload: %w", err)
				}
			}
			return e.sender.SendPhotoGroup(ctx, group)
		})
		if errors.Is(err, errDropped) {
			return nil
		}
		if err != nil {
			return err
		}
		delivered += len(group)
		monitoring.MediaDelivered.WithLabelValues("image").Add(float64(len(group)))
		return nil
	}

	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		if e.ledger.Contains(url) {
			continue
		}

		data, err := e.fetcher.Binary(ctx, url, referer)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return delivered, err
			}
			e.logger.Warn().Err(err).Str("url", url).Msg("image download failed")
			continue
		}

		name := payloadName(url, "photo", ".jpg")
		if isWebP(url, data) {
			converted, err := webpToJPEG(data)
			if err != nil {
				e.logger.Warn().Err(err).Str("url", url).Msg("webp conversion failed")
				continue
			}
			data = converted
			name = strings.TrimSuffix(name, path.Ext(name)) + ".jpg"
		}

		e.ledger.MarkDelivered(url)
		batch = append(batch, channel.Photo{Name: name, Data: bytes.NewReader(data)})

		if len(batch) >= e.batchSize {
			if err := flush(); err != nil {
				return delivered, err
			}
		}
	}

	if err := flush(); err != nil {
		return delivered, err
	}
	return delivered, nil
}

// DeliverVideos downloads the given video URLs and sends them one at a time.
// Returns the number of videos delivered.
func (e *Engine) DeliverVideos(ctx context.Context, urls []string, referer string) (int, error) {
	delivered := 0

	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		if e.ledger.Contains(url) {
			continue
		}

		data, err := e.fetcher.Binary(ctx, url, referer)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return delivered, err
			}
			e.logger.Warn().Err(err).Str("url", url).Msg("video download failed")
			continue
		}

		e.ledger.MarkDelivered(url)

		video := channel.Video{
			Name:      payloadName(url, "video", ".mp4"),
			Data:      bytes.NewReader(data),
			Streaming: true,
		}
		err = e.sendWithRetry(ctx, "video", func() error {
			if _, err := video.Data.Seek(0, 0); err != nil {
				return fmt.Errorf("failed to rewind payload: %w", err)
			}
			return e.sender.SendVideo(ctx, video)
		})
		if errors.Is(err, errDropped) {
			continue
		}
		if err != nil {
			return delivered, err
		}
		delivered++
		monitoring.MediaDelivered.WithLabelValues("video").Inc()
	}
	return delivered, nil
}

// sendWithRetry runs send, retrying on failure. Channel throttling waits out
// the requested interval and retries without consuming an attempt. Other
// errors get the configured number of additional attempts with a fixed delay
// and the payload is dropped after the last one. After a successful send the
// shared limiter paces the next one.
func (e *Engine) sendWithRetry(ctx context.Context, what string, send func() error) error {
	attempt := 0
	for {
		err := send()
		if err == nil {
			monitoring.SendsTotal.WithLabelValues("ok").Inc()
			return e.limiter.Wait(ctx)
		}

		var rl *channel.RateLimitedError
		if errors.As(err, &rl) {
			monitoring.RateLimitWaits.Inc()
			e.logger.Info().
				Dur("retry_after", rl.RetryAfter).
				Str("payload", what).
				Msg("channel throttled, waiting")
			if err := sleepCtx(ctx, rl.RetryAfter); err != nil {
				return err
			}
			continue
		}

		attempt++
		if attempt > e.retryAttempts {
			monitoring.SendsTotal.WithLabelValues("dropped").Inc()
			e.logger.Error().Err(err).Str("payload", what).Msg("send failed, dropping payload")
			return errDropped
		}

		e.logger.Warn().Err(err).
			Str("payload", what).
			Int("attempt", attempt).
			Msg("send failed, retrying")
		if err := sleepCtx(ctx, e.retryDelay); err != nil {
			return err
		}
	}
}

// payloadName derives a filename from the URL path, falling back to a
// timestamped name when the path has no usable base.
func payloadName(url, prefix, ext string) string {
	trimmed := url
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	base := path.Base(trimmed)
	if base == "" || base == "." || base == "/" || !strings.Contains(base, ".") {
		return fmt.Sprintf("%s_%d%s", prefix, time.Now().Unix(), ext)
	}
	return base
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
