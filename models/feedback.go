package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Rating is an end-of-session feedback rating.
type Rating string

const (
	RatingHelpful    Rating = "helpful"
	RatingOkay       Rating = "okay"
	RatingNotHelpful Rating = "not_helpful"
)

// Ratings lists all valid feedback ratings.
func Ratings() []Rating {
	return []Rating{RatingHelpful, RatingOkay, RatingNotHelpful}
}

// Validate checks that the rating is one of the enumerated values.
func (r Rating) Validate() error {
	switch r {
	case RatingHelpful, RatingOkay, RatingNotHelpful:
		return nil
	}
	return fmt.Errorf("unknown rating: %q", string(r))
}

// Display returns the rating label used in chat replies and reports.
func (r Rating) Display() string {
	switch r {
	case RatingHelpful:
		return "👍 Helpful"
	case RatingOkay:
		return "🤔 Okay"
	case RatingNotHelpful:
		return "👎 Not helpful"
	}
	return string(r)
}

// FeedbackRecord is a single user rating captured at session end.
// Records are append-only and immutable after creation.
type FeedbackRecord struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TelegramID int64     `json:"telegram_id" db:"telegram_id"`
	Username   string    `json:"username" db:"username"`
	Rating     Rating    `json:"rating" db:"rating"`
	Comment    string    `json:"comment" db:"comment"`
	Flagged    bool      `json:"flagged" db:"flagged"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}

// CommentWordCount counts whitespace-separated words in the comment.
func (f *FeedbackRecord) CommentWordCount() int {
	return len(strings.Fields(f.Comment))
}

// DailyUsage tracks /discussion starts for one user on one local day.
type DailyUsage struct {
	TelegramID      int64     `json:"telegram_id" db:"telegram_id"`
	Day             string    `json:"day" db:"day"` // YYYY-MM-DD local date
	DiscussionCount int       `json:"discussion_count" db:"discussion_count"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// DayKey formats a timestamp as the local-day bucket used by DailyUsage.
func DayKey(t time.Time) string {
	return t.Local().Format("2006-01-02")
}
