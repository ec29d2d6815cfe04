package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/val3riia/languagemirror-bot/ports"
)

// UsageRepositoryImpl implements UsageRepository for PostgreSQL.
// Reserve relies on a conditional upsert so the daily cap holds even
// when one user issues concurrent /discussion calls.
type UsageRepositoryImpl struct {
	db *sqlx.DB
}

// NewUsageRepository creates a new PostgreSQL usage repository
func NewUsageRepository(db *sqlx.DB) ports.UsageRepository {
	return &UsageRepositoryImpl{db: db}
}

// Reserve atomically increments the user's counter if below limit.
func (r *UsageRepositoryImpl) Reserve(ctx context.Context, telegramID int64, day string, limit int) (int, bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		INSERT INTO daily_usage (telegram_id, day, discussion_count, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (telegram_id, day) DO UPDATE
		SET discussion_count = daily_usage.discussion_count + 1, updated_at = NOW()
		WHERE daily_usage.discussion_count < $3
		RETURNING discussion_count
	`, telegramID, day, limit)
	if errors.Is(err, sql.ErrNoRows) {
		// Conditional update did not fire: the cap is already reached.
		current, cErr := r.Count(ctx, telegramID, day)
		if cErr != nil {
			return 0, false, cErr
		}
		return current, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// Count returns the user's discussion count for the given day.
func (r *UsageRepositoryImpl) Count(ctx context.Context, telegramID int64, day string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT discussion_count FROM daily_usage
		WHERE telegram_id = $1 AND day = $2
	`, telegramID, day)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Grant refunds one discussion slot for the given day (floor zero).
func (r *UsageRepositoryImpl) Grant(ctx context.Context, telegramID int64, day string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE daily_usage
		SET discussion_count = GREATEST(discussion_count - 1, 0), updated_at = NOW()
		WHERE telegram_id = $1 AND day = $2
	`, telegramID, day)
	return err
}
