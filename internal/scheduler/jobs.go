package scheduler

import (
	"context"
	"log/slog"
	"time"

	"contactsapi/internal/repository"
)

// ResetTokenCleanup clears password reset tokens that have expired
type ResetTokenCleanup struct {
	Users  repository.UserRepository
	Now    func() time.Time
	Logger *slog.Logger
}

func (j *ResetTokenCleanup) Name() string { return "reset_token_cleanup" }

func (j *ResetTokenCleanup) Run(ctx context.Context) error {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	n, err := j.Users.ClearExpiredResetTokens(ctx, now())
	if err != nil {
		return err
	}
	if n > 0 && j.Logger != nil {
		j.Logger.Info("cleared expired reset tokens", "count", n)
	}
	return nil
}

// Pruner drops expired in-process entries
type Pruner interface {
	Prune() int
}

// AttemptPrune removes expired counters and token mirrors from the in-process attempt store
type AttemptPrune struct {
	Tracker Pruner
}

func (j *AttemptPrune) Name() string { return "attempt_prune" }

func (j *AttemptPrune) Run(context.Context) error {
	j.Tracker.Prune()
	return nil
}
