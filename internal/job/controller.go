// internal/job/controller.go
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"mediagrab/internal/artifact"
	"mediagrab/internal/config"
	"mediagrab/internal/extract"
	"mediagrab/internal/ledger"
	"mediagrab/internal/monitoring"
	"mediagrab/pkg/types"
)

// pageFetcher fetches raw page content.
type pageFetcher interface {
	Page(ctx context.Context, url string) (string, error)
}

// embedResolver recovers a direct media URL from an embed player page.
type embedResolver interface {
	Resolve(ctx context.Context, embedURL, referer string) string
}

// deliverer relays filtered media URLs to the output channel.
type deliverer interface {
	DeliverImages(ctx context.Context, urls []string, referer string) (int, error)
	DeliverVideos(ctx context.Context, urls []string, referer string) (int, error)
}

// Events is the callback surface toward the chat/UI layer. Implementations
// must be safe for concurrent use since jobs for different chats run
// concurrently.
type Events interface {
	// Progress reports seeds processed out of the total.
	Progress(chatID int64, processed, total int)

	// Artifact delivers a produced file, used by video-links jobs.
	Artifact(chatID int64, data []byte, filename, caption string)

	// Done reports the terminal outcome of a job.
	Done(chatID int64, outcome types.Outcome)
}

// Manager starts, runs and tracks jobs. One job per chat at a time.
type Manager struct {
	registry  *Registry
	fetcher   pageFetcher
	extractor *extract.Extractor
	resolver  embedResolver
	delivery  deliverer
	ledger    ledger.Ledger
	events    Events
	logger    zerolog.Logger

	cfg            config.JobConfig
	artifactFormat artifact.Format
}

// NewManager wires a job manager.
func NewManager(
	fetcher pageFetcher,
	extractor *extract.Extractor,
	resolver embedResolver,
	delivery deliverer,
	led ledger.Ledger,
	events Events,
	cfg config.JobConfig,
	artifactFormat artifact.Format,
	logger zerolog.Logger,
) *Manager {
	return &Manager{
		registry:       NewRegistry(),
		fetcher:        fetcher,
		extractor:      extractor,
		resolver:       resolver,
		delivery:       delivery,
		ledger:         led,
		events:         events,
		logger:         logger.With().Str("component", "job").Logger(),
		cfg:            cfg,
		artifactFormat: artifactFormat,
	}
}

// Registry exposes the job registry for status and cancel requests.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Submit starts a job for the chat and returns its ID. The job runs on its
// own goroutine; the terminal outcome arrives through the Events surface.
// Returns ErrBusy when the chat already has a running job.
func (m *Manager) Submit(chatID int64, mode types.Mode, seeds []string) (string, error) {
	if len(seeds) == 0 {
		return "", errors.New("at least one seed URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	j, err := m.registry.start(chatID, mode, cancel)
	if err != nil {
		cancel()
		return "", err
	}

	monitoring.JobsTotal.WithLabelValues(string(mode)).Inc()
	monitoring.ActiveJobs.Inc()

	go m.run(ctx, j, seeds)
	return j.ID, nil
}

// Cancel requests cancellation of the chat's active job.
func (m *Manager) Cancel(chatID int64) error {
	return m.registry.Cancel(chatID)
}

// Status returns a snapshot of the chat's active job.
func (m *Manager) Status(chatID int64) (Status, error) {
	return m.registry.Status(chatID)
}

// run executes one job to its terminal outcome. Bookkeeping is cleared on
// every exit path, panics included.
func (m *Manager) run(ctx context.Context, j *Job, seeds []string) {
	logger := m.logger.With().
		Str("job_id", j.ID).
		Int64("chat_id", j.ChatID).
		Str("mode", string(j.Mode)).
		Logger()

	var outcome types.Outcome
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("job panicked")
			outcome = types.Failed(fmt.Sprint(r), m.cfg.MaxErrorLength)
		}
		m.registry.remove(j.ChatID)
		monitoring.ActiveJobs.Dec()
		monitoring.JobsFinished.WithLabelValues(string(outcome.Kind)).Inc()
		m.events.Done(j.ChatID, outcome)
		logger.Info().Str("outcome", string(outcome.Kind)).Msg("job finished")
	}()

	logger.Info().Int("seeds", len(seeds)).Msg("job started")

	var err error
	switch j.Mode {
	case types.ModeVideoLinks:
		err = m.runVideoLinks(ctx, j, seeds, logger)
	default:
		err = m.runMediaScraper(ctx, j, seeds, logger)
	}

	switch {
	case err == nil:
		outcome = types.Completed()
	case errors.Is(err, context.Canceled):
		outcome = types.Cancelled()
	default:
		outcome = types.Failed(err.Error(), m.cfg.MaxErrorLength)
	}
}

// runVideoLinks collects video links from every seed and emits them as one
// artifact. Links are deduplicated by URL across the whole run, the first
// title wins.
func (m *Manager) runVideoLinks(ctx context.Context, j *Job, seeds []string, logger zerolog.Logger) error {
	j.setProgress(0, len(seeds))

	seen := make(map[string]struct{})
	var links []types.VideoLink

	for i, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			if err := sleepCtx(ctx, m.cfg.PageInterval.Duration); err != nil {
				return err
			}
		}

		pageURL := types.NormalizeSeed(seed)
		html, err := m.fetcher.Page(ctx, pageURL)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			monitoring.PagesFetched.WithLabelValues("error").Inc()
			logger.Warn().Err(err).Str("url", pageURL).Msg("page fetch failed, skipping")
			m.advance(j, i+1, len(seeds))
			continue
		}
		monitoring.PagesFetched.WithLabelValues("ok").Inc()

		for _, l := range m.extractor.VideoLinks(html, pageURL) {
			if _, dup := seen[l.URL]; dup {
				continue
			}
			seen[l.URL] = struct{}{}
			links = append(links, l)
		}
		m.advance(j, i+1, len(seeds))
	}

	data, err := artifact.Render(links, m.artifactFormat)
	if err != nil {
		return fmt.Errorf("failed to render artifact: %w", err)
	}

	caption := fmt.Sprintf("Collected %d video links from %d pages", len(links), len(seeds))
	m.events.Artifact(j.ChatID, data, artifact.FileName(j.ID, m.artifactFormat), caption)
	return nil
}

// runMediaScraper crawls each seed, following next-page links, and delivers
// the new media it finds. Images are fully delivered before videos on every
// page.
func (m *Manager) runMediaScraper(ctx context.Context, j *Job, seeds []string, logger zerolog.Logger) error {
	j.setProgress(0, len(seeds))

	for i, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			if err := sleepCtx(ctx, m.cfg.SeedInterval.Duration); err != nil {
				return err
			}
		}

		if err := m.scrapeSeed(ctx, types.NormalizeSeed(seed), logger); err != nil {
			return err
		}
		m.advance(j, i+1, len(seeds))
	}
	return nil
}

// scrapeSeed processes one seed URL and its next-page chain. Page failures
// end the chain for this seed without failing the job.
func (m *Manager) scrapeSeed(ctx context.Context, seedURL string, logger zerolog.Logger) error {
	visited := make(map[string]struct{})
	pageURL := seedURL

	for pageURL != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, loop := visited[pageURL]; loop {
			logger.Warn().Str("url", pageURL).Msg("pagination loop detected, stopping chain")
			return nil
		}
		visited[pageURL] = struct{}{}

		html, err := m.fetcher.Page(ctx, pageURL)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			monitoring.PagesFetched.WithLabelValues("error").Inc()
			logger.Warn().Err(err).Str("url", pageURL).Msg("page fetch failed, ending chain")
			return nil
		}
		monitoring.PagesFetched.WithLabelValues("ok").Inc()

		result := m.extractor.PageMedia(html, pageURL)
		media := result.Media

		// Resolved embeds join the video list up to its cap.
		for _, embed := range result.Embeds {
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(media.Videos) >= m.extractor.MaxVideos() {
				break
			}
			resolved := m.resolver.Resolve(ctx, embed, pageURL)
			if resolved == "" || contains(media.Videos, resolved) {
				continue
			}
			media.Videos = append(media.Videos, resolved)
		}

		monitoring.MediaExtracted.WithLabelValues("image").Add(float64(len(media.Images)))
		monitoring.MediaExtracted.WithLabelValues("gif").Add(float64(len(media.Gifs)))
		monitoring.MediaExtracted.WithLabelValues("video").Add(float64(len(media.Videos)))

		newImages := ledger.FilterNew(m.ledger, media.Images)
		newGifs := ledger.FilterNew(m.ledger, media.Gifs)
		newVideos := ledger.FilterNew(m.ledger, media.Videos)

		logger.Info().
			Str("url", pageURL).
			Int("images", len(newImages)).
			Int("gifs", len(newGifs)).
			Int("videos", len(newVideos)).
			Msg("page scraped")

		if _, err := m.delivery.DeliverImages(ctx, newImages, pageURL); err != nil {
			return err
		}
		// Gifs animate, the channel treats them like videos.
		if _, err := m.delivery.DeliverVideos(ctx, newGifs, pageURL); err != nil {
			return err
		}
		if _, err := m.delivery.DeliverVideos(ctx, newVideos, pageURL); err != nil {
			return err
		}

		if media.NextPage != "" {
			if err := sleepCtx(ctx, m.cfg.PageInterval.Duration); err != nil {
				return err
			}
		}
		pageURL = media.NextPage
	}
	return nil
}

func (m *Manager) advance(j *Job, processed, total int) {
	j.setProgress(processed, total)
	m.events.Progress(j.ChatID, processed, total)
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

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
