package ports

import (
	"context"

	"github.com/val3riia/languagemirror-bot/models"
)

// SessionStore owns the mapping from Telegram user ID to their single
// active practice session.
type SessionStore interface {
	// Start creates an active session for the user. Fails with
	// ALREADY_ACTIVE if an unexpired session exists.
	Start(ctx context.Context, telegramID int64, level models.LanguageLevel) (*models.Session, error)

	// Get returns the user's active session, or NO_ACTIVE_SESSION.
	Get(ctx context.Context, telegramID int64) (*models.Session, error)

	// AppendTurn records a conversation turn on the active session.
	// Fails with NO_ACTIVE_SESSION or SESSION_EXPIRED.
	AppendTurn(ctx context.Context, telegramID int64, role models.ChatRole, content string) (*models.Session, error)

	// End closes the active session and returns its final state.
	// Fails with NO_ACTIVE_SESSION.
	End(ctx context.Context, telegramID int64) (*models.Session, error)

	// SweepExpired closes sessions idle past the timeout and returns
	// how many were closed.
	SweepExpired(ctx context.Context) int
}
