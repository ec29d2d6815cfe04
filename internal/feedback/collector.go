package feedback

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/val3riia/languagemirror-bot/internal/errors"
	"github.com/val3riia/languagemirror-bot/models"
	"github.com/val3riia/languagemirror-bot/ports"
)

// Collector records end-of-session feedback. Records are append-only;
// a comment below the minimum word count is accepted but flagged
// rather than rejected.
type Collector struct {
	repo     ports.FeedbackRepository
	users    ports.UserRepository
	minWords int
	onBonus  func(ctx context.Context, telegramID int64) error
}

// NewCollector creates a feedback collector. onBonus, when non-nil, is
// invoked the first time a user leaves an unflagged comment.
func NewCollector(repo ports.FeedbackRepository, users ports.UserRepository, minWords int, onBonus func(ctx context.Context, telegramID int64) error) *Collector {
	return &Collector{repo: repo, users: users, minWords: minWords, onBonus: onBonus}
}

// Record appends one feedback record for the user.
func (c *Collector) Record(ctx context.Context, user *models.User, rating models.Rating, comment string) (*models.FeedbackRecord, error) {
	if err := rating.Validate(); err != nil {
		return nil, errors.InvalidRating(string(rating))
	}

	comment = strings.TrimSpace(comment)
	rec := &models.FeedbackRecord{
		ID:         uuid.New(),
		TelegramID: user.TelegramID,
		Username:   user.DisplayName(),
		Rating:     rating,
		Comment:    comment,
		Timestamp:  time.Now(),
	}
	if comment != "" && rec.CommentWordCount() < c.minWords {
		rec.Flagged = true
	}

	if err := c.repo.Append(ctx, rec); err != nil {
		return nil, errors.StorageUnavailable(err)
	}
	log.Printf("[FeedbackCollector] Recorded %s feedback from user %d (flagged=%v)", rating, user.TelegramID, rec.Flagged)

	if comment != "" && !rec.Flagged && !user.FeedbackBonusUsed {
		c.grantBonus(ctx, user)
	}

	return rec, nil
}

// grantBonus marks the one-time comment bonus; failures only log since
// the feedback itself is already stored.
func (c *Collector) grantBonus(ctx context.Context, user *models.User) {
	if err := c.users.MarkFeedbackBonusUsed(ctx, user.TelegramID); err != nil {
		log.Printf("[FeedbackCollector] WARNING: failed to mark feedback bonus for user %d: %v", user.TelegramID, err)
		return
	}
	user.FeedbackBonusUsed = true
	if c.onBonus != nil {
		if err := c.onBonus(ctx, user.TelegramID); err != nil {
			log.Printf("[FeedbackCollector] WARNING: failed to grant bonus slot for user %d: %v", user.TelegramID, err)
		}
	}
}
