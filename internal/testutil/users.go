package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"contactsapi/internal/models"
	"contactsapi/internal/repository"

	"github.com/google/uuid"
)

// UserStore is an in-memory repository.UserRepository and
// repository.AdminRepository with the same conditional update semantics as the
// postgres implementation
type UserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
	audit []models.AuditEntry
	Now   func() time.Time

	// Err, when set, is returned by every call
	Err error
}

// NewUserStore creates an empty store
func NewUserStore() *UserStore {
	return &UserStore{
		users: make(map[uuid.UUID]models.User),
		Now:   time.Now,
	}
}

func (s *UserStore) find(match func(u *models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if match(&u) {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *UserStore) update(id uuid.UUID, notFound error, fn func(u *models.User) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.users[id]
	if !ok || !fn(&u) {
		return notFound
	}
	u.UpdatedAt = s.Now()
	s.users[id] = u
	return nil
}

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, u := range s.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("%w: %w", repository.ErrUserExists, repository.ErrConflict)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = s.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ID == id })
}

func (s *UserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Username == username })
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *UserStore) GetByResetToken(_ context.Context, token string) (*models.User, error) {
	now := s.Now()
	return s.find(func(u *models.User) bool { return u.HasResetToken(token, now) })
}

func (s *UserStore) SetResetToken(_ context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	return s.update(id, repository.ErrUserNotFound, func(u *models.User) bool {
		if !u.IsActive {
			return false
		}
		u.ResetToken = &token
		u.ResetTokenExpiresAt = &expiresAt
		return true
	})
}

func (s *UserStore) ClearResetToken(_ context.Context, id uuid.UUID) error {
	return s.update(id, repository.ErrUserNotFound, func(u *models.User) bool {
		u.ResetToken = nil
		u.ResetTokenExpiresAt = nil
		return true
	})
}

func (s *UserStore) ConsumeResetToken(_ context.Context, id uuid.UUID, token, passwordHash string) error {
	now := s.Now()
	return s.update(id, repository.ErrResetTokenInvalid, func(u *models.User) bool {
		if !u.IsActive || !u.HasResetToken(token, now) {
			return false
		}
		u.PasswordHash = passwordHash
		u.ResetToken = nil
		u.ResetTokenExpiresAt = nil
		return true
	})
}

func (s *UserStore) ClearExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for id, u := range s.users {
		if u.ResetTokenExpiresAt != nil && !u.ResetTokenExpiresAt.After(now) {
			u.ResetToken = nil
			u.ResetTokenExpiresAt = nil
			s.users[id] = u
			n++
		}
	}
	return n, nil
}

func (s *UserStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	return s.update(id, repository.ErrUserNotFound, func(u *models.User) bool {
		u.PasswordHash = passwordHash
		return true
	})
}

func (s *UserStore) SetVerificationToken(_ context.Context, id uuid.UUID, token string) error {
	return s.update(id, repository.ErrUserNotFound, func(u *models.User) bool {
		if u.IsVerified {
			return false
		}
		u.VerificationToken = &token
		return true
	})
}

func (s *UserStore) MarkVerified(_ context.Context, id uuid.UUID, token string) error {
	return s.update(id, repository.ErrTokenInvalid, func(u *models.User) bool {
		if u.VerificationToken == nil || *u.VerificationToken != token {
			return false
		}
		u.IsVerified = true
		u.IsActive = true
		u.VerificationToken = nil
		return true
	})
}

func (s *UserStore) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL *string) (*models.User, error) {
	err := s.update(id, repository.ErrUserNotFound, func(u *models.User) bool {
		u.AvatarURL = avatarURL
		return true
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Put stores user as is, bypassing uniqueness checks
func (s *UserStore) Put(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}
