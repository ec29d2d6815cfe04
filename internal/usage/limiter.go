package usage

import (
	"context"
	"log"
	"time"

	"github.com/val3riia/languagemirror-bot/internal/errors"
	"github.com/val3riia/languagemirror-bot/models"
	"github.com/val3riia/languagemirror-bot/ports"
)

// Limiter enforces the daily discussion cap. Admins are exempt; users
// who left a commented feedback get a one-time extra slot. The
// underlying repository performs the compare-and-increment atomically,
// so concurrent /discussion calls cannot exceed the cap.
type Limiter struct {
	repo     ports.UsageRepository
	maxDaily int
	isAdmin  func(int64) bool
	now      func() time.Time
}

// NewLimiter creates a daily usage limiter.
func NewLimiter(repo ports.UsageRepository, maxDaily int, isAdmin func(int64) bool) *Limiter {
	return &Limiter{
		repo:     repo,
		maxDaily: maxDaily,
		isAdmin:  isAdmin,
		now:      time.Now,
	}
}

// Reserve claims one discussion slot for today. Returns
// DAILY_LIMIT_REACHED when the user is out of slots.
func (l *Limiter) Reserve(ctx context.Context, user *models.User) error {
	if l.isAdmin != nil && l.isAdmin(user.TelegramID) {
		log.Printf("[UsageLimiter] Admin %d exempt from daily cap", user.TelegramID)
		return nil
	}

	limit := l.maxDaily
	day := models.DayKey(l.now())
	count, ok, err := l.repo.Reserve(ctx, user.TelegramID, day, limit)
	if err != nil {
		return errors.StorageUnavailable(err)
	}
	if !ok {
		log.Printf("[UsageLimiter] User %d hit daily cap (%d) on %s", user.TelegramID, limit, day)
		return errors.DailyLimitReached(user.TelegramID, limit)
	}

	log.Printf("[UsageLimiter] User %d reserved discussion %d/%d for %s", user.TelegramID, count, limit, day)
	return nil
}

// GrantBonus refunds one slot for today. Called once per user when a
// commented feedback is recorded.
func (l *Limiter) GrantBonus(ctx context.Context, telegramID int64) error {
	day := models.DayKey(l.now())
	if err := l.repo.Grant(ctx, telegramID, day); err != nil {
		return errors.StorageUnavailable(err)
	}
	log.Printf("[UsageLimiter] Granted feedback bonus slot to user %d for %s", telegramID, day)
	return nil
}

// Refund returns a reserved slot that was never used, for example when
// starting the session failed after the reservation.
func (l *Limiter) Refund(ctx context.Context, telegramID int64) error {
	day := models.DayKey(l.now())
	if err := l.repo.Grant(ctx, telegramID, day); err != nil {
		return errors.StorageUnavailable(err)
	}
	log.Printf("[UsageLimiter] Refunded unused discussion slot to user %d for %s", telegramID, day)
	return nil
}

// Remaining reports how many discussion slots the user has left today.
func (l *Limiter) Remaining(ctx context.Context, user *models.User) (int, error) {
	if l.isAdmin != nil && l.isAdmin(user.TelegramID) {
		return l.maxDaily, nil
	}
	count, err := l.repo.Count(ctx, user.TelegramID, models.DayKey(l.now()))
	if err != nil {
		return 0, errors.StorageUnavailable(err)
	}
	if count >= l.maxDaily {
		return 0, nil
	}
	return l.maxDaily - count, nil
}
