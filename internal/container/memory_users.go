package container

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/val3riia/languagemirror-bot/models"
	"github.com/val3riia/languagemirror-bot/ports"
)

// MemoryUserRepository keeps users in a map. Used when no database is
// configured; state is lost on restart.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]*models.User
}

// NewMemoryUserRepository creates an empty in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[int64]*models.User)}
}

func (r *MemoryUserRepository) GetOrCreate(ctx context.Context, telegramID int64, username, firstName, lastName string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[telegramID]; ok {
		u.Username = username
		u.FirstName = firstName
		u.LastName = lastName
		u.LastActivity = time.Now()
		cp := *u
		return &cp, nil
	}

	u := &models.User{
		ID:           uuid.New(),
		TelegramID:   telegramID,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
	}
	r.users[telegramID] = u
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) UpdateLanguageLevel(ctx context.Context, telegramID int64, level models.LanguageLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[telegramID]; ok {
		u.LanguageLevel = level
		u.LastActivity = time.Now()
	}
	return nil
}

func (r *MemoryUserRepository) MarkFeedbackBonusUsed(ctx context.Context, telegramID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[telegramID]; ok {
		u.FeedbackBonusUsed = true
	}
	return nil
}

var _ ports.UserRepository = (*MemoryUserRepository)(nil)
