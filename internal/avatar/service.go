// Package avatar validates and stores user profile images
package avatar

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"contactsapi/internal/models"
	"contactsapi/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrNotConfigured   = errors.New("avatar storage is not configured")
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported image type")
)

// Store persists avatar images
type Store interface {
	Upload(ctx context.Context, userID uuid.UUID, file io.Reader) (string, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Service uploads avatars and records their URL on the user
type Service struct {
	store   Store
	users   repository.UserRepository
	maxSize int64
	logger  *slog.Logger
}

// NewService creates an avatar service. A nil store disables uploads.
func NewService(store Store, users repository.UserRepository, maxSize int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		users:   users,
		maxSize: maxSize,
		logger:  logger,
	}
}

// MaxSize is the largest accepted upload in bytes
func (s *Service) MaxSize() int64 {
	return s.maxSize
}

// Set validates file and makes it the avatar of userID. size is the declared
// upload size; the content is sniffed rather than trusting the client's type.
func (s *Service) Set(ctx context.Context, userID uuid.UUID, file io.Reader, size int64) (*models.User, error) {
	if s.store == nil {
		return nil, ErrNotConfigured
	}
	if size > s.maxSize {
		return nil, ErrTooLarge
	}

	br := bufio.NewReaderSize(file, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if !allowedTypes[http.DetectContentType(head)] {
		return nil, ErrUnsupportedType
	}

	url, err := s.store.Upload(ctx, userID, io.LimitReader(br, s.maxSize))
	if err != nil {
		return nil, err
	}
	return s.users.UpdateAvatar(ctx, userID, &url)
}

// Remove deletes the avatar of userID. Storage failures are logged, the URL is cleared regardless.
func (s *Service) Remove(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if s.store != nil {
		if err := s.store.Delete(ctx, userID); err != nil {
			s.logger.Warn("failed to delete avatar image", "user_id", userID, "error", err)
		}
	}
	return s.users.UpdateAvatar(ctx, userID, nil)
}
