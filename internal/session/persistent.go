package session

import (
	"context"
	"log"

	"github.com/val3riia/languagemirror-bot/models"
	"github.com/val3riia/languagemirror-bot/ports"
)

// PersistentStore decorates a SessionStore with synchronous
// write-through to the session repository. The in-memory store stays
// the source of truth for the conversation loop; storage failures are
// logged and never break a user's chat.
type PersistentStore struct {
	inner ports.SessionStore
	repo  ports.SessionRepository
}

// NewPersistentStore wraps the store with database write-through.
func NewPersistentStore(inner ports.SessionStore, repo ports.SessionRepository) *PersistentStore {
	return &PersistentStore{inner: inner, repo: repo}
}

func (s *PersistentStore) Start(ctx context.Context, telegramID int64, level models.LanguageLevel) (*models.Session, error) {
	sess, err := s.inner.Start(ctx, telegramID, level)
	if err != nil {
		return nil, err
	}
	if dbErr := s.repo.CreateSession(ctx, sess); dbErr != nil {
		log.Printf("[SessionStore] WARNING: failed to persist session start for user %d: %v", telegramID, dbErr)
	}
	return sess, nil
}

func (s *PersistentStore) Get(ctx context.Context, telegramID int64) (*models.Session, error) {
	return s.inner.Get(ctx, telegramID)
}

func (s *PersistentStore) AppendTurn(ctx context.Context, telegramID int64, role models.ChatRole, content string) (*models.Session, error) {
	sess, err := s.inner.AppendTurn(ctx, telegramID, role, content)
	if err != nil {
		return nil, err
	}
	if len(sess.Messages) > 0 {
		msg := sess.Messages[len(sess.Messages)-1]
		if dbErr := s.repo.AppendMessage(ctx, sess, msg); dbErr != nil {
			log.Printf("[SessionStore] WARNING: failed to persist message for user %d: %v", telegramID, dbErr)
		}
	}
	return sess, nil
}

func (s *PersistentStore) End(ctx context.Context, telegramID int64) (*models.Session, error) {
	sess, err := s.inner.End(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if dbErr := s.repo.CloseSession(ctx, sess); dbErr != nil {
		log.Printf("[SessionStore] WARNING: failed to persist session end for user %d: %v", telegramID, dbErr)
	}
	return sess, nil
}

func (s *PersistentStore) SweepExpired(ctx context.Context) int {
	return s.inner.SweepExpired(ctx)
}
