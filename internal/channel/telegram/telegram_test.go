// internal/channel/telegram/telegram_test.go
package telegram

import (
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mediagrab/internal/channel"
)

func TestMapError(t *testing.T) {
	s := &Sender{}

	if err := s.mapError(nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	throttled := &tgbotapi.Error{
		Code:    429,
		Message: "Too Many Requests",
		ResponseParameters: tgbotapi.ResponseParameters{
			RetryAfter: 7,
		},
	}
	err := s.mapError(throttled)
	var rl *channel.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rl.RetryAfter != 7*time.Second {
		t.Errorf("expected 7s retry, got %s", rl.RetryAfter)
	}

	plain := &tgbotapi.Error{Code: 400, Message: "Bad Request"}
	if err := s.mapError(plain); errors.As(err, &rl) {
		t.Error("generic errors must not map to RateLimitedError")
	}
}
