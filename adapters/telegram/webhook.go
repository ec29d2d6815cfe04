package telegram

import (
	"encoding/json"
	"log"
	"net/http"
)

// WebhookHandler decodes Bot API webhook posts and forwards them to
// the update handler. Mounted on the admin HTTP server when
// BOT_MODE=webhook.
type WebhookHandler struct {
	handler UpdateHandler
}

// NewWebhookHandler creates the webhook endpoint handler.
func NewWebhookHandler(handler UpdateHandler) *WebhookHandler {
	return &WebhookHandler{handler: handler}
}

// ServeHTTP accepts one update per request, per the Bot API contract.
// Telegram retries on non-200, so decode failures still return 200 to
// avoid redelivery loops for permanently malformed payloads.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var upd Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		log.Printf("[Webhook] Failed to decode update: %v", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	h.handler.HandleUpdate(r.Context(), upd)
	w.WriteHeader(http.StatusOK)
}
