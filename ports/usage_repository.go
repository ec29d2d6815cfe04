package ports

import (
	"context"
)

// UsageRepository tracks per-user daily discussion counts. Reserve is
// the one operation that must be atomic: concurrent calls for the same
// user must never push the counter past the limit.
type UsageRepository interface {
	// Reserve increments the user's counter for the given day if it is
	// below limit, returning the new count. Returns ok=false without
	// incrementing when the limit is already reached.
	Reserve(ctx context.Context, telegramID int64, day string, limit int) (count int, ok bool, err error)

	// Count returns the user's discussion count for the given day.
	Count(ctx context.Context, telegramID int64, day string) (int, error)

	// Grant refunds one discussion slot for the given day (floor zero).
	// Used for the one-time feedback-comment bonus.
	Grant(ctx context.Context, telegramID int64, day string) error
}
