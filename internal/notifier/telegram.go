package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const defaultTelegramAPI = "https://api.telegram.org"

// Notifier delivers human-readable run summaries.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// NoopNotifier drops every message; used when Telegram is not configured.
type NoopNotifier struct{}

func (NoopNotifier) SendWithRetry(context.Context, string, int) error { return nil }

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	Client   *resty.Client
	// Backoff is the first retry delay; it doubles per attempt.
	Backoff time.Duration
	// PollRetry is the pause after a failed getUpdates call.
	PollRetry time.Duration
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	return newTelegramNotifier(defaultTelegramAPI, botToken, chatID, proxyURL)
}

func newTelegramNotifier(apiBase, botToken, chatID, proxyURL string) *TelegramNotifier {
	client := resty.New().
		SetBaseURL(apiBase).
		SetTimeout(35 * time.Second)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &TelegramNotifier{
		BotToken:  botToken,
		ChatID:    chatID,
		Client:    client,
		Backoff:   time.Second,
		PollRetry: 5 * time.Second,
	}
}

// Send sends a message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	resp, err := t.Client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id":    t.ChatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		Post("/bot" + t.BotToken + "/sendMessage")
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := t.Backoff * time.Duration(1<<uint(i))
		log.Warn().Err(err).Int("attempt", i+1).Int("of", maxRetries+1).Dur("retry_in", backoff).Msg("telegram send failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}
