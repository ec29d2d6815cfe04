package ports

import (
	"context"

	"github.com/val3riia/languagemirror-bot/models"
)

// UserRepository defines data access for bot users keyed by Telegram ID.
type UserRepository interface {
	// GetOrCreate returns the user row, creating it on first contact.
	GetOrCreate(ctx context.Context, telegramID int64, username, firstName, lastName string) (*models.User, error)

	// UpdateLanguageLevel stores the user's declared level.
	UpdateLanguageLevel(ctx context.Context, telegramID int64, level models.LanguageLevel) error

	// MarkFeedbackBonusUsed records that the one-time comment bonus was granted.
	MarkFeedbackBonusUsed(ctx context.Context, telegramID int64) error
}
