// Package attempt counts rate limited operations per key and mirrors
// outstanding password reset tokens in a fast-expiring cache.
package attempt

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is a backend for the tracker. Implementations must make
// CheckAndIncrement atomic for concurrent callers of the same key.
type Store interface {
	// CheckAndIncrement increments the counter for key and reports true if the
	// counter was below max within the current window. A rejected call does not
	// increment.
	CheckAndIncrement(ctx context.Context, key string, max int, window time.Duration) (bool, error)

	// CacheResetToken stores token as the outstanding reset token of userID
	CacheResetToken(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error
	// GetResetToken returns the cached token and whether one was present
	GetResetToken(ctx context.Context, userID uuid.UUID) (string, bool, error)
	// InvalidateResetToken removes the cached token of userID
	InvalidateResetToken(ctx context.Context, userID uuid.UUID) error
}

const (
	counterPrefix    = "attempt:"
	resetTokenPrefix = "reset_token:"
)

func counterKey(key string) string {
	return counterPrefix + key
}

func resetTokenKey(userID uuid.UUID) string {
	return resetTokenPrefix + userID.String()
}
