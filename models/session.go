package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionState represents the lifecycle state of a practice session
type SessionState string

const (
	SessionStateActive SessionState = "active"
	SessionStateClosed SessionState = "closed"
)

// ChatRole is the author of a conversation turn.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is a single turn in a practice conversation.
type ChatMessage struct {
	Role      ChatRole  `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Session is the live state of one user's practice conversation.
// At most one active session exists per user.
type Session struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	TelegramID   int64         `json:"telegram_id" db:"telegram_id"`
	Level        LanguageLevel `json:"level" db:"language_level"`
	Topic        string        `json:"topic" db:"topic"`
	Messages     []ChatMessage `json:"messages"`
	MessageCount int           `json:"message_count" db:"messages_count"`
	State        SessionState  `json:"state" db:"state"`
	StartedAt    time.Time     `json:"started_at" db:"started_at"`
	LastActive   time.Time     `json:"last_active" db:"last_active"`
	EndedAt      *time.Time    `json:"ended_at,omitempty" db:"ended_at"`
}

// NewSession creates an active session for a user at the given level.
func NewSession(telegramID int64, level LanguageLevel) *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.New(),
		TelegramID: telegramID,
		Level:      level,
		State:      SessionStateActive,
		StartedAt:  now,
		LastActive: now,
	}
}

// Append records a conversation turn and bumps the activity timestamp.
func (s *Session) Append(role ChatRole, content string) {
	now := time.Now()
	s.Messages = append(s.Messages, ChatMessage{Role: role, Content: content, Timestamp: now})
	s.MessageCount = len(s.Messages)
	s.LastActive = now
}

// Close marks the session inactive. Closed is terminal for this instance.
func (s *Session) Close() {
	now := time.Now()
	s.State = SessionStateClosed
	s.EndedAt = &now
}

// IdleSince reports how long the session has been without activity.
func (s *Session) IdleSince(now time.Time) time.Duration {
	return now.Sub(s.LastActive)
}

// History returns the last n turns formatted for the completion service.
// n <= 0 returns the full history.
func (s *Session) History(n int) []ChatMessage {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}
