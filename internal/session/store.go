package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/val3riia/languagemirror-bot/internal/errors"
	"github.com/val3riia/languagemirror-bot/models"
	"github.com/val3riia/languagemirror-bot/ports"
)

// MemoryStore keeps per-user sessions in process memory. Sessions idle
// past the timeout are treated as expired: Get closes them, AppendTurn
// reports SESSION_EXPIRED so the handler can prompt a restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]*models.Session
	timeout  time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a session store with the given idle timeout.
func NewMemoryStore(timeout time.Duration) *MemoryStore {
	log.Printf("[SessionStore] Initialized in-memory store with timeout %s", timeout)
	return &MemoryStore{
		sessions: make(map[int64]*models.Session),
		timeout:  timeout,
		now:      time.Now,
	}
}

// SetNowFunc overrides the store's clock. Tests use it to trigger
// expiry without sleeping.
func (s *MemoryStore) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Start creates an active session for the user.
func (s *MemoryStore) Start(ctx context.Context, telegramID int64, level models.LanguageLevel) (*models.Session, error) {
	if err := level.Validate(); err != nil {
		return nil, errors.InvalidInput(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[telegramID]; ok {
		if existing.IdleSince(s.now()) <= s.timeout {
			return nil, errors.AlreadyActive(telegramID)
		}
		// Expired leftovers never block a fresh start.
		existing.Close()
		delete(s.sessions, telegramID)
		log.Printf("[SessionStore] Replaced expired session for user %d", telegramID)
	}

	sess := models.NewSession(telegramID, level)
	s.sessions[telegramID] = sess
	log.Printf("[SessionStore] Started session %s for user %d at level %s", sess.ID, telegramID, level)
	return snapshot(sess), nil
}

// Get returns the user's active session.
func (s *MemoryStore) Get(ctx context.Context, telegramID int64) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.activeLocked(telegramID)
	if err != nil {
		return nil, err
	}
	return snapshot(sess), nil
}

// AppendTurn records a conversation turn on the active session.
func (s *MemoryStore) AppendTurn(ctx context.Context, telegramID int64, role models.ChatRole, content string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.activeLocked(telegramID)
	if err != nil {
		return nil, err
	}
	sess.Append(role, content)
	return snapshot(sess), nil
}

// End closes the active session and returns its final state.
func (s *MemoryStore) End(ctx context.Context, telegramID int64) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[telegramID]
	if !ok {
		return nil, errors.NoActiveSession(telegramID)
	}
	sess.Close()
	delete(s.sessions, telegramID)
	log.Printf("[SessionStore] Ended session %s for user %d after %d messages", sess.ID, telegramID, sess.MessageCount)
	return snapshot(sess), nil
}

// SweepExpired closes all sessions idle past the timeout.
func (s *MemoryStore) SweepExpired(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var expired []int64
	for id, sess := range s.sessions {
		if sess.IdleSince(now) > s.timeout {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		s.sessions[id].Close()
		delete(s.sessions, id)
	}
	if len(expired) > 0 {
		log.Printf("[SessionStore] Swept %d expired sessions", len(expired))
	}
	return len(expired)
}

// activeLocked returns the unexpired session or the appropriate error.
// Callers must hold s.mu.
func (s *MemoryStore) activeLocked(telegramID int64) (*models.Session, error) {
	sess, ok := s.sessions[telegramID]
	if !ok {
		return nil, errors.NoActiveSession(telegramID)
	}
	if sess.IdleSince(s.now()) > s.timeout {
		sess.Close()
		delete(s.sessions, telegramID)
		log.Printf("[SessionStore] Session for user %d expired after idle timeout", telegramID)
		return nil, errors.SessionExpired(telegramID)
	}
	return sess, nil
}

// snapshot copies the session so callers cannot mutate store state.
func snapshot(sess *models.Session) *models.Session {
	cp := *sess
	cp.Messages = make([]models.ChatMessage, len(sess.Messages))
	copy(cp.Messages, sess.Messages)
	return &cp
}

// Janitor periodically sweeps expired sessions until ctx is done.
func Janitor(ctx context.Context, store ports.SessionStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.SweepExpired(ctx)
		}
	}
}
