package repository

import (
	"context"
	"time"

	"contactsapi/internal/models"

	"github.com/google/uuid"
)

// UserRepository is the credential store. Implementations return ErrUserNotFound,
// ErrUserExists (wrapping ErrConflict) or an error wrapping ErrUnavailable.
//
// The password reset flow only goes through SetResetToken and ConsumeResetToken.
// ClearResetToken and UpdatePassword are plain store operations with no reset
// semantics attached.
type UserRepository interface {
	// Create inserts user, assigning ID and timestamps
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByResetToken only returns users whose reset token has not expired
	GetByResetToken(ctx context.Context, token string) (*models.User, error)

	// SetResetToken writes the token and its expiry together. Inactive or missing
	// users match no row and get ErrUserNotFound.
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	// ClearResetToken clears the token and its expiry together
	ClearResetToken(ctx context.Context, id uuid.UUID) error
	// ConsumeResetToken atomically replaces the password hash and clears the reset token,
	// but only while token is still the user's unexpired reset token. Otherwise it
	// returns ErrResetTokenInvalid and changes nothing.
	ConsumeResetToken(ctx context.Context, id uuid.UUID, token, passwordHash string) error
	// ClearExpiredResetTokens clears every reset token that expired before now
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)

	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	// SetVerificationToken only matches unverified users
	SetVerificationToken(ctx context.Context, id uuid.UUID, token string) error
	// MarkVerified activates the account if token matches the stored verification token
	MarkVerified(ctx context.Context, id uuid.UUID, token string) error
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL *string) (*models.User, error)
}
