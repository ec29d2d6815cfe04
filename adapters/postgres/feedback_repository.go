package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/val3riia/languagemirror-bot/models"
	"github.com/val3riia/languagemirror-bot/ports"
)

// FeedbackRepositoryImpl implements FeedbackRepository for PostgreSQL.
// The table is append-only; no update or delete statements exist here.
type FeedbackRepositoryImpl struct {
	db *sqlx.DB
}

// NewFeedbackRepository creates a new PostgreSQL feedback repository
func NewFeedbackRepository(db *sqlx.DB) ports.FeedbackRepository {
	return &FeedbackRepositoryImpl{db: db}
}

// Append stores one feedback record.
func (r *FeedbackRepositoryImpl) Append(ctx context.Context, rec *models.FeedbackRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feedback (id, telegram_id, username, rating, comment, flagged, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.TelegramID, rec.Username, rec.Rating, rec.Comment, rec.Flagged, rec.Timestamp)
	return err
}

// List returns records within [from, to) ordered by timestamp ascending.
func (r *FeedbackRepositoryImpl) List(ctx context.Context, from, to *time.Time) ([]*models.FeedbackRecord, error) {
	query := `
		SELECT id, telegram_id, username, rating, comment, flagged, timestamp
		FROM feedback
	`
	var args []interface{}
	var conds []string
	if from != nil {
		args = append(args, *from)
		conds = append(conds, "timestamp >= $1")
	}
	if to != nil {
		args = append(args, *to)
		if len(args) == 2 {
			conds = append(conds, "timestamp < $2")
		} else {
			conds = append(conds, "timestamp < $1")
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + conds[0]
		if len(conds) == 2 {
			query += " AND " + conds[1]
		}
	}
	query += " ORDER BY timestamp ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.FeedbackRecord
	for rows.Next() {
		var rec models.FeedbackRecord
		if err := rows.Scan(&rec.ID, &rec.TelegramID, &rec.Username, &rec.Rating, &rec.Comment, &rec.Flagged, &rec.Timestamp); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
