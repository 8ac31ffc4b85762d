package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

const (
	// EnvTelegramBotToken and EnvTelegramChatID hold the bot credentials.
	EnvTelegramBotToken = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID   = "TELEGRAM_CHAT_ID"

	telegramBaseURL = "https://api.telegram.org"
)

// TelegramSender posts HTML messages through the Bot API sendMessage call.
type TelegramSender struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

// NewTelegramSender creates a sender with a 10 second HTTP timeout.
func NewTelegramSender(token, chatID string) *TelegramSender {
	return &TelegramSender{
		token:   token,
		chatID:  chatID,
		baseURL: telegramBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// TelegramSenderFromEnv builds a sender from TELEGRAM_BOT_TOKEN and
// TELEGRAM_CHAT_ID. ok is false when either is unset.
func TelegramSenderFromEnv() (sender *TelegramSender, ok bool) {
	token := strings.TrimSpace(os.Getenv(EnvTelegramBotToken))
	chatID := strings.TrimSpace(os.Getenv(EnvTelegramChatID))

	if token == "" || chatID == "" {
		return nil, false
	}

	return NewTelegramSender(token, chatID), true
}

// WithBaseURL points the sender at another API host.
func (t *TelegramSender) WithBaseURL(baseURL string) *TelegramSender {
	t.baseURL = strings.TrimRight(baseURL, "/")

	return t
}

// Send posts the message with the title in bold. The title is escaped; the
// message is sent as HTML.
func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	text := message
	if title != "" {
		text = fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(title), message)
	}

	body, err := json.Marshal(map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotificationFailed, "telegram: marshal payload", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotificationFailed, "telegram: create request", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotificationFailed, "telegram: send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return errors.Newf(errors.ErrCodeNotificationFailed, "telegram: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func (t *TelegramSender) Name() string {
	return "telegram"
}
