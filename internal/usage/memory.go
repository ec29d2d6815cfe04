package usage

import (
	"context"
	"strconv"
	"sync"
)

// MemoryRepository is the in-memory usage counter used when no
// database is configured. Reserve is a locked check-and-increment, so
// the cap holds under concurrent calls.
type MemoryRepository struct {
	mu     sync.Mutex
	counts map[string]int // key: telegramID + "/" + day
}

// NewMemoryRepository creates an in-memory usage repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{counts: make(map[string]int)}
}

func (r *MemoryRepository) Reserve(ctx context.Context, telegramID int64, day string, limit int) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := usageKey(telegramID, day)
	if r.counts[key] >= limit {
		return r.counts[key], false, nil
	}
	r.counts[key]++
	return r.counts[key], true, nil
}

func (r *MemoryRepository) Count(ctx context.Context, telegramID int64, day string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[usageKey(telegramID, day)], nil
}

func (r *MemoryRepository) Grant(ctx context.Context, telegramID int64, day string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := usageKey(telegramID, day)
	if r.counts[key] > 0 {
		r.counts[key]--
	}
	return nil
}

func usageKey(telegramID int64, day string) string {
	return day + "/" + strconv.FormatInt(telegramID, 10)
}
