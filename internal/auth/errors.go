package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConflict indicates the username or email is already registered
	ErrConflict = errors.New("username or email already registered")
	// ErrUnauthorized covers unknown users, inactive accounts and wrong passwords alike
	ErrUnauthorized = errors.New("invalid credentials")
	// ErrInvalidToken covers bad, expired, reused and wrong-purpose tokens
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrRateLimited indicates an attempt budget is exhausted
	ErrRateLimited = errors.New("too many attempts")
	// ErrUnavailable indicates a backend failed or timed out
	ErrUnavailable = errors.New("service temporarily unavailable")
	// ErrRegistrationClosed indicates new accounts are not accepted
	ErrRegistrationClosed = errors.New("registration is closed")
)

// RateLimitError names the limit that was hit
type RateLimitError struct {
	Limit      string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many %s attempts, try again in %s", e.Limit, e.RetryAfter)
}

// Is makes errors.Is(err, ErrRateLimited) hold
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
