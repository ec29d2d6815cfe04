package ports

import (
	"context"
	"time"

	"github.com/val3riia/languagemirror-bot/models"
)

// FeedbackRepository is an append-only log of feedback records.
// No update or delete operations are exposed.
type FeedbackRepository interface {
	// Append stores one feedback record.
	Append(ctx context.Context, rec *models.FeedbackRecord) error

	// List returns records within [from, to) ordered by timestamp
	// ascending. Nil bounds are open.
	List(ctx context.Context, from, to *time.Time) ([]*models.FeedbackRecord, error)
}
