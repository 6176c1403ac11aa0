package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTelegramAPI is the Bot API root.
const DefaultTelegramAPI = "https://api.telegram.org"

// DefaultTelegramRate keeps a single chat under the Bot API's one message
// per second guidance.
const DefaultTelegramRate = rate.Limit(1)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 * 1024

// ErrTelegramRejected is returned when the Bot API answers ok=false.
var ErrTelegramRejected = errors.New("telegram rejected message")

// TelegramConfig configures a TelegramSink.
type TelegramConfig struct {
	Token  string
	ChatID string

	// APIURL overrides DefaultTelegramAPI.
	APIURL string

	// RateLimit is messages per second. Zero uses DefaultTelegramRate.
	RateLimit float64

	Client *http.Client
}

// TelegramSink posts messages to one chat through the Bot API sendMessage
// method.
type TelegramSink struct {
	endpoint string
	chatID   string
	client   *http.Client
	limiter  *rate.Limiter
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewTelegramSink validates cfg and returns a sink.
func NewTelegramSink(cfg TelegramConfig) (*TelegramSink, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is required")
	}
	if cfg.ChatID == "" {
		return nil, errors.New("telegram chat id is required")
	}
	api := cfg.APIURL
	if api == "" {
		api = DefaultTelegramAPI
	}
	limit := DefaultTelegramRate
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &TelegramSink{
		endpoint: fmt.Sprintf("%s/bot%s/sendMessage", api, cfg.Token),
		chatID:   cfg.ChatID,
		client:   client,
		limiter:  rate.NewLimiter(limit, 1),
	}, nil
}

// Send implements Sink. It waits for the rate limiter, so a cancelled ctx
// can drop a message before it is posted.
func (s *TelegramSink) Send(ctx context.Context, message string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit: %w", err)
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:                s.chatID,
		Text:                  message,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// the endpoint embeds the token; keep it out of logs
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return fmt.Errorf("telegram request: %w", urlErr.Err)
		}
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	var out apiResponse
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("telegram response: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("telegram response: status %d: %w", resp.StatusCode, err)
	}
	if !out.OK || resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", ErrTelegramRejected, resp.StatusCode, out.Description)
	}
	return nil
}
