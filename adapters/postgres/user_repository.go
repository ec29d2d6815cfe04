package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/val3riia/languagemirror-bot/models"
	"github.com/val3riia/languagemirror-bot/ports"
)

// UserRepositoryImpl implements UserRepository for PostgreSQL
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// GetOrCreate returns the user row, creating it on first contact.
func (r *UserRepositoryImpl) GetOrCreate(ctx context.Context, telegramID int64, username, firstName, lastName string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, telegram_id, username, first_name, last_name, language_level, feedback_bonus_used, created_at, last_activity
		FROM users
		WHERE telegram_id = $1
	`, telegramID)
	if err == nil {
		// Refresh activity and any name change on every contact.
		_, _ = r.db.ExecContext(ctx, `
			UPDATE users SET username = $2, first_name = $3, last_name = $4, last_activity = NOW()
			WHERE telegram_id = $1
		`, telegramID, username, firstName, lastName)
		return &user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	user = models.User{
		ID:           uuid.New(),
		TelegramID:   telegramID,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, telegram_id, username, first_name, last_name, language_level, feedback_bonus_used, created_at, last_activity)
		VALUES ($1, $2, $3, $4, $5, '', false, $6, $7)
		ON CONFLICT (telegram_id) DO UPDATE SET last_activity = NOW()
	`, user.ID, user.TelegramID, user.Username, user.FirstName, user.LastName, user.CreatedAt, user.LastActivity)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLanguageLevel stores the user's declared level.
func (r *UserRepositoryImpl) UpdateLanguageLevel(ctx context.Context, telegramID int64, level models.LanguageLevel) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET language_level = $2, last_activity = NOW()
		WHERE telegram_id = $1
	`, telegramID, level)
	return err
}

// MarkFeedbackBonusUsed records that the one-time comment bonus was granted.
func (r *UserRepositoryImpl) MarkFeedbackBonusUsed(ctx context.Context, telegramID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET feedback_bonus_used = true
		WHERE telegram_id = $1
	`, telegramID)
	return err
}
