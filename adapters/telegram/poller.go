package telegram

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"
)

// UpdateHandler consumes inbound updates.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, upd Update)
}

// Poller delivers updates via getUpdates long polling. A competing bot
// instance shows up as HTTP 409 from the API; the poller backs off and
// retries instead of crashing, so the surviving instance wins.
type Poller struct {
	client  *Client
	handler UpdateHandler
	timeout time.Duration
	offset  int64
}

// NewPoller creates a long-polling update source.
func NewPoller(client *Client, handler UpdateHandler) *Poller {
	return &Poller{
		client:  client,
		handler: handler,
		timeout: 30 * time.Second,
	}
}

// Run polls until ctx is cancelled. It removes any stale webhook first
// so polling is the only delivery path.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.client.DeleteWebhook(ctx, false); err != nil {
		log.Printf("[Poller] WARNING: failed to delete webhook before polling: %v", err)
	}

	log.Printf("[Poller] Starting long polling (timeout=%s)", p.timeout)
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			log.Printf("[Poller] Stopping: %v", ctx.Err())
			return ctx.Err()
		default:
		}

		updates, err := p.client.GetUpdates(ctx, p.offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var apiErr *apiError
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
				log.Printf("[Poller] Another bot instance is polling (409), backing off %s", backoff)
			} else {
				log.Printf("[Poller] getUpdates failed: %v, backing off %s", err, backoff)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, upd := range updates {
			if upd.UpdateID >= p.offset {
				p.offset = upd.UpdateID + 1
			}
			p.handler.HandleUpdate(ctx, upd)
		}
	}
}
