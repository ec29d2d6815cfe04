package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/val3riia/languagemirror-bot/ports"
)

// Client is a minimal Telegram Bot API client covering the methods the
// bot needs. It implements ports.Messenger for the outbound side.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Bot API client for the given token.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    "https://api.telegram.org",
		httpClient: &http.Client{Timeout: 65 * time.Second}, // above long-poll timeout
	}
}

// apiError carries the Bot API error code for callers that care
// (the poller watches for 409 conflicts).
type apiError struct {
	Code        int
	Description string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

// call posts a JSON payload to a Bot API method and decodes the result.
func (c *Client) call(ctx context.Context, method string, payload interface{}, result interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", method, err)
		}
		body = bytes.NewReader(raw)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("parse %s response: %w", method, err)
	}
	if !envelope.OK {
		return &apiError{Code: envelope.ErrorCode, Description: envelope.Description}
	}
	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("parse %s result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := map[string]interface{}{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message", "callback_query"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	return c.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}, nil)
}

// SendButtons sends a message with an inline keyboard, one row per entry.
func (c *Client) SendButtons(ctx context.Context, chatID int64, text string, rows [][]ports.Button) error {
	keyboard := make([][]InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		line := make([]InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			line = append(line, InlineKeyboardButton{Text: b.Text, CallbackData: b.Data})
		}
		keyboard = append(keyboard, line)
	}
	return c.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id":      chatID,
		"text":         text,
		"reply_markup": InlineKeyboardMarkup{InlineKeyboard: keyboard},
	}, nil)
}

// EditText replaces the text of a previously sent message.
func (c *Client) EditText(ctx context.Context, chatID int64, messageID int64, text string) error {
	return c.call(ctx, "editMessageText", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}, nil)
}

// AnswerCallback acknowledges an inline button press.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]interface{}{
		"callback_query_id": callbackID,
	}, nil)
}

// SendTyping shows the "typing..." chat action.
func (c *Client) SendTyping(ctx context.Context, chatID int64) error {
	return c.call(ctx, "sendChatAction", map[string]interface{}{
		"chat_id": chatID,
		"action":  "typing",
	}, nil)
}

// SetWebhook registers the webhook URL for update delivery.
func (c *Client) SetWebhook(ctx context.Context, url string) error {
	log.Printf("[Telegram] Registering webhook: %s", url)
	return c.call(ctx, "setWebhook", map[string]interface{}{
		"url":             url,
		"allowed_updates": []string{"message", "callback_query"},
	}, nil)
}

// DeleteWebhook removes any registered webhook. Called before polling
// starts so a stale webhook or a competing instance cannot swallow
// updates.
func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) error {
	log.Printf("[Telegram] Deleting webhook (dropPending=%v)", dropPending)
	return c.call(ctx, "deleteWebhook", map[string]interface{}{
		"drop_pending_updates": dropPending,
	}, nil)
}

var _ ports.Messenger = (*Client)(nil)
