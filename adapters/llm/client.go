package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/val3riia/languagemirror-bot/internal/config"
	"github.com/val3riia/languagemirror-bot/internal/errors"
	"github.com/val3riia/languagemirror-bot/models"
	"github.com/val3riia/languagemirror-bot/ports"
)

// OpenRouterClient implements ports.LLMClient against the OpenRouter
// chat-completions API.
type OpenRouterClient struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration

	httpClient *http.Client
}

// NewOpenRouterClient creates a completion client from config.
func NewOpenRouterClient(cfg config.AIConfig) (*OpenRouterClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.ConfigInvalid("OPENROUTER_API_KEY is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}

	log.Printf("[LLMClient] Initialized OpenRouter client with model=%s, temp=%.2f, maxTokens=%d",
		cfg.Model, cfg.Temperature, cfg.MaxTokens)

	return &OpenRouterClient{
		APIKey:      cfg.APIKey,
		BaseURL:     baseURL,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.RequestTimeout,
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
	}, nil
}

// ChatCompletion sends the system prompt plus history and returns the
// assistant reply. Timeouts and transport failures come back as
// UPSTREAM_UNAVAILABLE, HTTP 429 as RATE_LIMITED.
func (c *OpenRouterClient) ChatCompletion(ctx context.Context, system string, history []models.ChatMessage) (string, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type reqBody struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature,omitempty"`
		MaxTokens   int     `json:"max_tokens,omitempty"`
	}

	messages := make([]msg, 0, len(history)+1)
	messages = append(messages, msg{Role: "system", Content: system})
	for _, m := range history {
		messages = append(messages, msg{Role: string(m.Role), Content: m.Content})
	}

	body := reqBody{
		Model:       c.Model,
		Messages:    messages,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("HTTP-Referer", "https://language-mirror-bot.com")
	httpReq.Header.Set("X-Title", "Language Mirror Bot")

	log.Printf("[LLMClient] Sending completion request - model=%s, messages=%d", c.Model, len(messages))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			log.Printf("[LLMClient] Request timed out after %v", c.Timeout)
			return "", errors.UpstreamUnavailable(err)
		}
		return "", errors.UpstreamUnavailable(err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.UpstreamUnavailable(err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		log.Printf("[LLMClient] Rate limited by upstream (429)")
		return "", errors.RateLimited(fmt.Errorf("openrouter status %d: %s", resp.StatusCode, string(respRaw)))
	case resp.StatusCode != http.StatusOK:
		log.Printf("[LLMClient] Upstream error status %d", resp.StatusCode)
		return "", errors.UpstreamUnavailable(fmt.Errorf("openrouter status %d: %s", resp.StatusCode, string(respRaw)))
	}

	type completionResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	var parsed completionResp
	if err := json.Unmarshal(respRaw, &parsed); err != nil {
		return "", errors.UpstreamUnavailable(fmt.Errorf("parse response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", errors.UpstreamUnavailable(fmt.Errorf("no choices in response"))
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		content = "I understand. Please continue sharing your thoughts."
	}
	return content, nil
}

// MockLLMClient is a canned completion client for tests and local runs.
type MockLLMClient struct {
	Response string
	Error    error
	Calls    int
}

func (m *MockLLMClient) ChatCompletion(ctx context.Context, system string, history []models.ChatMessage) (string, error) {
	m.Calls++
	if m.Error != nil {
		return "", m.Error
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return "That's interesting! Can you tell me more about that?", nil
}

// UnavailableClient always fails with UPSTREAM_UNAVAILABLE. Wired when
// no API key is configured; the conversation engine then serves its
// local fallback replies for every turn.
type UnavailableClient struct{}

func (UnavailableClient) ChatCompletion(ctx context.Context, system string, history []models.ChatMessage) (string, error) {
	return "", errors.UpstreamUnavailable(fmt.Errorf("no completion service configured"))
}

var _ ports.LLMClient = (*OpenRouterClient)(nil)
var _ ports.LLMClient = (*MockLLMClient)(nil)
var _ ports.LLMClient = UnavailableClient{}
