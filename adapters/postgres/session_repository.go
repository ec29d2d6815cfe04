package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/val3riia/languagemirror-bot/models"
	"github.com/val3riia/languagemirror-bot/ports"
)

// SessionRepositoryImpl implements SessionRepository for PostgreSQL
type SessionRepositoryImpl struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) ports.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

// CreateSession inserts a new session row.
func (r *SessionRepositoryImpl) CreateSession(ctx context.Context, session *models.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, telegram_id, language_level, topic, state, messages_count, started_at, last_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, session.ID, session.TelegramID, session.Level, session.Topic, session.State, session.MessageCount, session.StartedAt, session.LastActive)
	return err
}

// AppendMessage appends one conversation turn to the session log.
func (r *SessionRepositoryImpl) AppendMessage(ctx context.Context, session *models.Session, msg models.ChatMessage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (session_id, role, content, timestamp)
		VALUES ($1, $2, $3, $4)
	`, session.ID, msg.Role, msg.Content, msg.Timestamp)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE sessions SET messages_count = $2, last_active = $3
		WHERE id = $1
	`, session.ID, session.MessageCount, session.LastActive)
	return err
}

// CloseSession marks the session inactive with its final counts.
func (r *SessionRepositoryImpl) CloseSession(ctx context.Context, session *models.Session) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET state = $2, messages_count = $3, ended_at = NOW()
		WHERE id = $1
	`, session.ID, session.State, session.MessageCount)
	return err
}
