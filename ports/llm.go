package ports

import (
	"context"

	"github.com/val3riia/languagemirror-bot/models"
)

// LLMClient is the boundary to the external completion service.
// Implementations classify transport failures into the
// UPSTREAM_UNAVAILABLE / RATE_LIMITED error codes so callers can pick
// the fallback path without inspecting HTTP details.
type LLMClient interface {
	ChatCompletion(ctx context.Context, system string, history []models.ChatMessage) (string, error)
}
