package ports

import (
	"context"

	"github.com/val3riia/languagemirror-bot/models"
)

// SessionRepository persists session lifecycle events. Used as a
// write-through behind the in-memory SessionStore; every mutation is a
// synchronous upsert.
type SessionRepository interface {
	// CreateSession inserts a new session row.
	CreateSession(ctx context.Context, session *models.Session) error

	// AppendMessage appends one conversation turn to the session log.
	AppendMessage(ctx context.Context, session *models.Session, msg models.ChatMessage) error

	// CloseSession marks the session inactive with its final counts.
	CloseSession(ctx context.Context, session *models.Session) error
}
