package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LanguageLevel is a CEFR proficiency level (A1..C2).
type LanguageLevel string

const (
	LevelA1 LanguageLevel = "A1"
	LevelA2 LanguageLevel = "A2"
	LevelB1 LanguageLevel = "B1"
	LevelB2 LanguageLevel = "B2"
	LevelC1 LanguageLevel = "C1"
	LevelC2 LanguageLevel = "C2"
)

// Levels lists all valid language levels in ascending order.
func Levels() []LanguageLevel {
	return []LanguageLevel{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}
}

// Validate checks that the level is one of A1..C2.
func (l LanguageLevel) Validate() error {
	switch l {
	case LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2:
		return nil
	}
	return fmt.Errorf("unknown language level: %q", string(l))
}

// Description returns the human-readable description shown on the level keyboard.
func (l LanguageLevel) Description() string {
	switch l {
	case LevelA1:
		return "Beginner - You're just starting with English"
	case LevelA2:
		return "Elementary - You can use simple phrases and sentences"
	case LevelB1:
		return "Intermediate - You can discuss familiar topics"
	case LevelB2:
		return "Upper Intermediate - You can interact with fluency"
	case LevelC1:
		return "Advanced - You can express yourself fluently and spontaneously"
	case LevelC2:
		return "Proficiency - You can understand virtually everything heard or read"
	}
	return string(l)
}

// User represents a bot user keyed by their Telegram ID.
type User struct {
	ID                uuid.UUID     `json:"id" db:"id"`
	TelegramID        int64         `json:"telegram_id" db:"telegram_id"`
	Username          string        `json:"username" db:"username"`
	FirstName         string        `json:"first_name" db:"first_name"`
	LastName          string        `json:"last_name" db:"last_name"`
	LanguageLevel     LanguageLevel `json:"language_level" db:"language_level"`
	FeedbackBonusUsed bool          `json:"feedback_bonus_used" db:"feedback_bonus_used"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	LastActivity      time.Time     `json:"last_activity" db:"last_activity"`
}

// DisplayName returns the best available name for reports and logs.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return fmt.Sprintf("User %d", u.TelegramID)
}
