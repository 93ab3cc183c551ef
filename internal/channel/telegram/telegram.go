// Package telegram adapts the Telegram Bot API to the channel.Sender
// interface.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"mediagrab/internal/channel"
)

// Sender delivers media to a single Telegram chat.
type Sender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// New creates a Sender authenticated with the given bot token.
func New(token string, chatID int64, logger zerolog.Logger) (*Sender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot client: %w", err)
	}
	return NewWithBot(bot, chatID, logger), nil
}

// NewWithBot wraps an existing bot client.
func NewWithBot(bot *tgbotapi.BotAPI, chatID int64, logger zerolog.Logger) *Sender {
	return &Sender{
		bot:    bot,
		chatID: chatID,
		logger: logger.With().Str("component", "telegram").Logger(),
	}
}

// SendPhotoGroup sends up to channel.MaxGroupSize photos as one media group.
// A single photo is sent as a plain photo message, Telegram rejects media
// groups of one.
func (s *Sender) SendPhotoGroup(ctx context.Context, photos []channel.Photo) error {
	if len(photos) == 0 {
		return nil
	}
	if len(photos) > channel.MaxGroupSize {
		return fmt.Errorf("photo group of %d exceeds limit %d", len(photos), channel.MaxGroupSize)
	}

	if len(photos) == 1 {
		msg := tgbotapi.NewPhoto(s.chatID, readerFile(photos[0].Name, photos[0].Data))
		_, err := s.bot.Send(msg)
		return s.mapError(err)
	}

	media := make([]interface{}, 0, len(photos))
	for _, p := range photos {
		media = append(media, tgbotapi.NewInputMediaPhoto(readerFile(p.Name, p.Data)))
	}
	group := tgbotapi.NewMediaGroup(s.chatID, media)
	_, err := s.bot.SendMediaGroup(group)
	return s.mapError(err)
}

// SendVideo sends a single video.
func (s *Sender) SendVideo(ctx context.Context, video channel.Video) error {
	msg := tgbotapi.NewVideo(s.chatID, readerFile(video.Name, video.Data))
	msg.SupportsStreaming = video.Streaming
	_, err := s.bot.Send(msg)
	return s.mapError(err)
}

// SendText sends a plain text message.
func (s *Sender) SendText(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(s.chatID, text)
	_, err := s.bot.Send(msg)
	return s.mapError(err)
}

// SendDocument sends a file as a document.
func (s *Sender) SendDocument(ctx context.Context, name string, data *bytes.Reader) error {
	msg := tgbotapi.NewDocument(s.chatID, readerFile(name, data))
	_, err := s.bot.Send(msg)
	return s.mapError(err)
}

// mapError converts Telegram throttling responses into
// *channel.RateLimitedError so callers can wait the requested interval.
func (s *Sender) mapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return &channel.RateLimitedError{
			RetryAfter: time.Duration(apiErr.RetryAfter) * time.Second,
		}
	}
	return err
}

func readerFile(name string, data *bytes.Reader) tgbotapi.RequestFileData {
	return tgbotapi.FileReader{Name: name, Reader: io.Reader(data)}
}
