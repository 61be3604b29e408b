package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"contactsapi/internal/models"
	"contactsapi/internal/repository"

	"github.com/google/uuid"
)

const userColumns = `
	id, username, email, password_hash, full_name, avatar_url,
	is_active, is_verified, role, verification_token,
	reset_token, reset_token_expires_at, created_at, updated_at`

type userRepository struct {
	repository.BaseRepository
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.AvatarURL,
		&user.IsActive,
		&user.IsVerified,
		&user.Role,
		&user.VerificationToken,
		&user.ResetToken,
		&user.ResetTokenExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			id, username, email, password_hash, full_name, avatar_url,
			is_active, is_verified, role, verification_token, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11
		)
		RETURNING created_at, updated_at`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	err := r.DB().QueryRowContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.AvatarURL,
		user.IsActive,
		user.IsVerified,
		user.Role,
		user.VerificationToken,
		time.Now().UTC(),
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err := mapError(err, repository.ErrUserNotFound); err != nil {
		if isConflict(err) {
			return fmt.Errorf("%w: %w", repository.ErrUserExists, err)
		}
		return err
	}
	return nil
}

func (r *userRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(r.DB().QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, mapError(err, repository.ErrUserNotFound)
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username = $1", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "lower(email) = lower($1)", email)
}

func (r *userRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, "reset_token = $1 AND reset_token_expires_at > CURRENT_TIMESTAMP", token)
}

// exec runs a single-row update and reports ErrUserNotFound when nothing matched
func (r *userRepository) exec(ctx context.Context, notFound error, query string, args ...any) error {
	result, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, notFound)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return mapError(err, notFound)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

func (r *userRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET reset_token = $2, reset_token_expires_at = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND is_active`
	return r.exec(ctx, repository.ErrUserNotFound, query, id, token, expiresAt)
}

func (r *userRepository) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET reset_token = NULL, reset_token_expires_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	return r.exec(ctx, repository.ErrUserNotFound, query, id)
}

func (r *userRepository) ConsumeResetToken(ctx context.Context, id uuid.UUID, token, passwordHash string) error {
	// The WHERE clause is the compare half of compare-and-clear: concurrent
	// consumers of the same token serialize on the row lock and only the first
	// one still sees a matching reset_token.
	query := `
		UPDATE users
		SET password_hash = $3,
			reset_token = NULL,
			reset_token_expires_at = NULL,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		AND is_active
		AND reset_token = $2
		AND reset_token_expires_at > CURRENT_TIMESTAMP`
	return r.exec(ctx, repository.ErrResetTokenInvalid, query, id, token, passwordHash)
}

func (r *userRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE users
		SET reset_token = NULL, reset_token_expires_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE reset_token_expires_at IS NOT NULL AND reset_token_expires_at <= $1`

	result, err := r.DB().ExecContext(ctx, query, now)
	if err != nil {
		return 0, mapError(err, repository.ErrNotFound)
	}
	return result.RowsAffected()
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	return r.exec(ctx, repository.ErrUserNotFound, query, id, passwordHash)
}

func (r *userRepository) SetVerificationToken(ctx context.Context, id uuid.UUID, token string) error {
	query := `
		UPDATE users SET verification_token = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND NOT is_verified`
	return r.exec(ctx, repository.ErrUserNotFound, query, id, token)
}

func (r *userRepository) MarkVerified(ctx context.Context, id uuid.UUID, token string) error {
	query := `
		UPDATE users
		SET is_verified = TRUE, is_active = TRUE, verification_token = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND verification_token = $2`
	return r.exec(ctx, repository.ErrTokenInvalid, query, id, token)
}

func (r *userRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL *string) (*models.User, error) {
	query := `
		UPDATE users SET avatar_url = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.DB().QueryRowContext(ctx, query, id, avatarURL))
	if err != nil {
		return nil, mapError(err, repository.ErrUserNotFound)
	}
	return user, nil
}
