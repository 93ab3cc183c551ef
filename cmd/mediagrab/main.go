// cmd/mediagrab/main.go
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"mediagrab/internal/api"
	"mediagrab/internal/artifact"
	"mediagrab/internal/channel"
	"mediagrab/internal/channel/telegram"
	"mediagrab/internal/config"
	"mediagrab/internal/delivery"
	"mediagrab/internal/extract"
	"mediagrab/internal/fetch"
	"mediagrab/internal/job"
	"mediagrab/internal/ledger"
	"mediagrab/internal/logging"
	"mediagrab/pkg/types"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// A local .env is optional.
	_ = godotenv.Load()

	switch command := os.Args[1]; command {
	case "serve":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: mediagrab serve <config.yaml>\n")
			os.Exit(1)
		}
		serve(os.Args[2])

	case "run":
		if len(os.Args) < 5 {
			fmt.Fprintf(os.Stderr, "Error: config file, mode and at least one URL required\n")
			fmt.Fprintf(os.Stderr, "Usage: mediagrab run <config.yaml> <mode> <url>...\n")
			os.Exit(1)
		}
		runOnce(os.Args[2], os.Args[3], os.Args[4:])

	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: mediagrab validate <config.yaml>\n")
			os.Exit(1)
		}
		validateConfig(os.Args[2])

	case "version", "--version", "-v":
		printVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", command)
		printUsage()
		os.Exit(1)
	}
}

// serve runs the control API server until interrupted.
func serve(configFile string) {
	cfg, logger := loadConfig(configFile)

	sender, err := buildSender(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect channel")
	}

	events := &serveEvents{
		sender: sender,
		dir:    cfg.Artifact.Dir,
		logger: logger,
	}
	app, err := buildApp(cfg, logger, sender, events)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}
	defer app.close()

	server := api.New(cfg.API.Listen, app.manager, logger)

	go func() {
		if err := server.ListenAndServe(); err != nil {
			logger.Fatal().Err(err).Msg("control api failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
}

// runOnce executes a single job for a synthetic chat and waits for its
// outcome. Video-links artifacts land in the configured artifact directory.
func runOnce(configFile, modeArg string, urls []string) {
	cfg, logger := loadConfig(configFile)

	mode, err := types.ParseMode(modeArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	done := make(chan types.Outcome, 1)
	events := &localEvents{
		dir:    cfg.Artifact.Dir,
		logger: logger,
		done:   done,
	}

	sender, err := buildSender(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect channel")
	}
	app, err := buildApp(cfg, logger, sender, events)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}
	defer app.close()

	const localChat = 1
	if _, err := app.manager.Submit(localChat, mode, urls); err != nil {
		logger.Fatal().Err(err).Msg("failed to start job")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-stop:
			logger.Info().Msg("cancelling")
			if err := app.manager.Cancel(localChat); err != nil {
				logger.Fatal().Err(err).Msg("cancel failed")
			}
		case outcome := <-done:
			if outcome.Kind == types.OutcomeFailed {
				logger.Error().Str("message", outcome.Message).Msg("job failed")
				os.Exit(1)
			}
			logger.Info().Str("outcome", string(outcome.Kind)).Msg("job finished")
			return
		}
	}
}

// validateConfig checks a configuration file and reports the result.
func validateConfig(configFile string) {
	if _, err := config.LoadFromFile(configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Configuration file '%s' is valid\n", configFile)
}

func loadConfig(configFile string) (*config.Config, zerolog.Logger) {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg, logging.New(cfg.Logging)
}

// app holds the wired pipeline and everything that needs closing.
type app struct {
	manager *job.Manager
	closers []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// buildSender connects the configured output channel, falling back to a
// discarding sender when no token is set.
func buildSender(cfg *config.Config, logger zerolog.Logger) (channel.Sender, error) {
	if cfg.Channel.Token == "" {
		return discardSender{logger: logger}, nil
	}
	return telegram.New(cfg.Channel.Token, cfg.Channel.ChatID, logger)
}

// buildApp wires the pipeline from configuration.
func buildApp(cfg *config.Config, logger zerolog.Logger, sender channel.Sender, events job.Events) (*app, error) {
	a := &app{}

	client := fetch.NewClient(cfg.Fetch, logger)
	if cfg.Fetch.Render {
		renderer := fetch.NewChromeRenderer(cfg.Fetch, logger)
		a.closers = append(a.closers, renderer.Close)
		client = client.WithRenderer(renderer)
	}

	var led ledger.Ledger
	if cfg.Ledger.Path != "" {
		sqlLedger, err := ledger.NewSQLite(cfg.Ledger.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open ledger: %w", err)
		}
		a.closers = append(a.closers, sqlLedger.Close)
		led = sqlLedger
	} else {
		led = ledger.NewMemory()
	}

	format, err := artifact.ParseFormat(cfg.Artifact.Format)
	if err != nil {
		return nil, err
	}

	extractor := extract.New(cfg.Extract)
	resolver := extract.NewEmbedResolver(client, logger)
	engine := delivery.New(client, led, sender, cfg.Delivery, logger)

	a.manager = job.NewManager(client, extractor, resolver, engine, led, events, cfg.Job, format, logger)
	return a, nil
}

// serveEvents reports progress through logs and delivers artifacts to the
// channel, falling back to the artifact directory on send failure.
type serveEvents struct {
	sender channel.Sender
	dir    string
	logger zerolog.Logger
}

func (e *serveEvents) Progress(chatID int64, processed, total int) {
	e.logger.Debug().
		Int64("chat_id", chatID).
		Int("processed", processed).
		Int("total", total).
		Msg("job progress")
}

func (e *serveEvents) Artifact(chatID int64, data []byte, filename, caption string) {
	ctx := context.Background()
	if err := e.sender.SendDocument(ctx, filename, bytes.NewReader(data)); err != nil {
		e.logger.Error().Err(err).Str("filename", filename).Msg("artifact send failed, writing to disk")
		writeArtifact(e.dir, filename, data, e.logger)
		return
	}
	if caption != "" {
		_ = e.sender.SendText(ctx, caption)
	}
}

func (e *serveEvents) Done(chatID int64, outcome types.Outcome) {
	e.logger.Info().
		Int64("chat_id", chatID).
		Str("outcome", string(outcome.Kind)).
		Str("message", outcome.Message).
		Msg("job done")
}

// localEvents backs the one-shot run command.
type localEvents struct {
	dir    string
	logger zerolog.Logger
	done   chan types.Outcome
}

func (e *localEvents) Progress(chatID int64, processed, total int) {
	e.logger.Info().Int("processed", processed).Int("total", total).Msg("progress")
}

func (e *localEvents) Artifact(chatID int64, data []byte, filename, caption string) {
	writeArtifact(e.dir, filename, data, e.logger)
}

func (e *localEvents) Done(chatID int64, outcome types.Outcome) {
	e.done <- outcome
}

func writeArtifact(dir, filename string, data []byte, logger zerolog.Logger) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error().Err(err).Msg("failed to create artifact directory")
		return
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("failed to write artifact")
		return
	}
	logger.Info().Str("path", path).Msg("artifact written")
}

// discardSender drops media when no channel is configured, used for dry
// runs and video-links-only setups.
type discardSender struct {
	logger zerolog.Logger
}

func (s discardSender) SendPhotoGroup(ctx context.Context, photos []channel.Photo) error {
	s.logger.Info().Int("count", len(photos)).Msg("discarding photo group, no channel configured")
	return nil
}

func (s discardSender) SendVideo(ctx context.Context, video channel.Video) error {
	s.logger.Info().Str("name", video.Name).Msg("discarding video, no channel configured")
	return nil
}

func (s discardSender) SendText(ctx context.Context, text string) error { return nil }

func (s discardSender) SendDocument(ctx context.Context, name string, data *bytes.Reader) error {
	return nil
}

// printUsage displays help information
func printUsage() {
	fmt.Println("mediagrab - Media Acquisition Pipeline")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mediagrab serve <config.yaml>              Run the control API server")
	fmt.Println("  mediagrab run <config.yaml> <mode> <url>.. Run a single job and exit")
	fmt.Println("  mediagrab validate <config.yaml>           Validate configuration file")
	fmt.Println("  mediagrab version                          Show version information")
	fmt.Println("  mediagrab help                             Show this help message")
	fmt.Println()
	fmt.Println("Modes:")
	fmt.Println("  media_scraper   Extract and deliver media from seed pages")
	fmt.Println("  video_links     Collect video links into a file")
}

// printVersion displays version information
func printVersion() {
	fmt.Printf("mediagrab %s\n", version)
	fmt.Printf("Build time: %s\n", buildTime)
	fmt.Printf("Git commit: %s\n", gitCommit)
}
