package usage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/val3riia/languagemirror-bot/internal/errors"
	"github.com/val3riia/languagemirror-bot/models"
)

func testUser(id int64) *models.User {
	return &models.User{TelegramID: id, LanguageLevel: models.LevelB1}
}

func TestReserveUpToLimit(t *testing.T) {
	limiter := NewLimiter(NewMemoryRepository(), 5, nil)
	ctx := context.Background()
	user := testUser(42)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Reserve(ctx, user), "reservation %d should succeed", i+1)
	}

	err := limiter.Reserve(ctx, user)
	require.Error(t, err)
	assert.Equal(t, errors.CodeDailyLimitReached, errors.GetCode(err))
}

func TestReserveAdminExempt(t *testing.T) {
	isAdmin := func(id int64) bool { return id == 99 }
	limiter := NewLimiter(NewMemoryRepository(), 1, isAdmin)
	ctx := context.Background()

	admin := testUser(99)
	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Reserve(ctx, admin))
	}

	// A regular user still hits the cap.
	user := testUser(42)
	require.NoError(t, limiter.Reserve(ctx, user))
	assert.Error(t, limiter.Reserve(ctx, user))
}

func TestReserveIsPerUser(t *testing.T) {
	limiter := NewLimiter(NewMemoryRepository(), 1, nil)
	ctx := context.Background()

	require.NoError(t, limiter.Reserve(ctx, testUser(1)))
	require.NoError(t, limiter.Reserve(ctx, testUser(2)))
	assert.Error(t, limiter.Reserve(ctx, testUser(1)))
}

func TestGrantBonusFreesOneSlot(t *testing.T) {
	limiter := NewLimiter(NewMemoryRepository(), 2, nil)
	ctx := context.Background()
	user := testUser(42)

	require.NoError(t, limiter.Reserve(ctx, user))
	require.NoError(t, limiter.Reserve(ctx, user))
	require.Error(t, limiter.Reserve(ctx, user))

	require.NoError(t, limiter.GrantBonus(ctx, user.TelegramID))
	assert.NoError(t, limiter.Reserve(ctx, user), "bonus frees exactly one slot")
	assert.Error(t, limiter.Reserve(ctx, user))
}

func TestRefundAfterFailedStart(t *testing.T) {
	limiter := NewLimiter(NewMemoryRepository(), 1, nil)
	ctx := context.Background()
	user := testUser(42)

	require.NoError(t, limiter.Reserve(ctx, user))
	require.NoError(t, limiter.Refund(ctx, user.TelegramID))
	assert.NoError(t, limiter.Reserve(ctx, user))
}

func TestRemaining(t *testing.T) {
	limiter := NewLimiter(NewMemoryRepository(), 3, nil)
	ctx := context.Background()
	user := testUser(42)

	left, err := limiter.Remaining(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 3, left)

	require.NoError(t, limiter.Reserve(ctx, user))
	left, err = limiter.Remaining(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, left)
}

func TestReserveConcurrentNeverExceedsCap(t *testing.T) {
	const limit = 5
	limiter := NewLimiter(NewMemoryRepository(), limit, nil)
	ctx := context.Background()
	user := testUser(42)

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Reserve(ctx, user) == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, granted)
}
