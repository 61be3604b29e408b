package attempt

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Mode names the backend a tracker is using
type Mode string

const (
	ModeRedis  Mode = "redis"
	ModeMemory Mode = "memory"
)

// Tracker runs every operation against the primary store and falls back to an
// in-process store when the primary fails. Without a primary it runs
// in-process permanently. It never allows an attempt without counting it.
type Tracker struct {
	primary  Store
	fallback *MemoryStore
	logger   *slog.Logger
}

// NewTracker creates a tracker. primary may be nil.
func NewTracker(primary Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		primary:  primary,
		fallback: NewMemoryStore(),
		logger:   logger,
	}
}

// Mode reports which backend is configured
func (t *Tracker) Mode() Mode {
	if t.primary == nil {
		return ModeMemory
	}
	return ModeRedis
}

// Fallback exposes the in-process store for housekeeping and tests
func (t *Tracker) Fallback() *MemoryStore {
	return t.fallback
}

func (t *Tracker) degraded(op string, err error) {
	t.logger.Warn("attempt store unavailable, using in-process fallback",
		"operation", op,
		"error", err,
	)
}

// CheckAndIncrement reports whether another attempt for key is allowed and
// counts it if so. An error is only returned when ctx is done.
func (t *Tracker) CheckAndIncrement(ctx context.Context, key string, max int, window time.Duration) (bool, error) {
	if t.primary != nil {
		allowed, err := t.primary.CheckAndIncrement(ctx, key, max, window)
		if err == nil {
			return allowed, nil
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		t.degraded("check_and_increment", err)
	}
	return t.fallback.CheckAndIncrement(ctx, key, max, window)
}

// CacheResetToken mirrors token as the outstanding reset token of userID
func (t *Tracker) CacheResetToken(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error {
	if t.primary != nil {
		err := t.primary.CacheResetToken(ctx, userID, token, ttl)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		t.degraded("cache_reset_token", err)
	}
	return t.fallback.CacheResetToken(ctx, userID, token, ttl)
}

// GetResetToken returns the mirrored reset token of userID, if any
func (t *Tracker) GetResetToken(ctx context.Context, userID uuid.UUID) (string, bool, error) {
	if t.primary != nil {
		token, ok, err := t.primary.GetResetToken(ctx, userID)
		if err == nil {
			return token, ok, nil
		}
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		t.degraded("get_reset_token", err)
	}
	return t.fallback.GetResetToken(ctx, userID)
}

// InvalidateResetToken removes the mirrored reset token of userID from both stores
func (t *Tracker) InvalidateResetToken(ctx context.Context, userID uuid.UUID) error {
	// The fallback may hold a copy written while the primary was down.
	_ = t.fallback.InvalidateResetToken(ctx, userID)

	if t.primary != nil {
		if err := t.primary.InvalidateResetToken(ctx, userID); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.degraded("invalidate_reset_token", err)
		}
	}
	return nil
}

// Prune removes expired entries from the in-process store
func (t *Tracker) Prune() int {
	return t.fallback.Prune()
}
