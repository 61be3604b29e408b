// Package admin implements user management for administrators
package admin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"contactsapi/internal/attempt"
	"contactsapi/internal/models"
	"contactsapi/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

var (
	ErrInvalidPagination = errors.New("skip must be >= 0 and limit between 1 and 100")
	ErrInvalidRole       = errors.New("role must be one of user, moderator, admin")
	ErrSelfDemotion      = errors.New("admins cannot demote themselves")
	ErrSelfDeactivation  = errors.New("admins cannot deactivate themselves")
)

// Tracker is the part of the attempt tracker user management touches
type Tracker interface {
	Stats(ctx context.Context) attempt.Stats
	InvalidateResetToken(ctx context.Context, userID uuid.UUID) error
}

// Service manages accounts on behalf of administrators
type Service struct {
	repo    repository.AdminRepository
	users   repository.UserRepository
	tracker Tracker
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates an admin service. logger may be nil.
func NewService(repo repository.AdminRepository, users repository.UserRepository, tracker Tracker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		users:   users,
		tracker: tracker,
		logger:  logger.With("component", "admin"),
		now:     time.Now,
	}
}

// SetClock replaces time.Now, for tests
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ListUsers returns one page of users matching filter
func (s *Service) ListUsers(ctx context.Context, filter repository.UserFilter) (*models.UserListResponse, error) {
	if filter.Offset < 0 || filter.Limit < 1 || filter.Limit > MaxLimit {
		return nil, ErrInvalidPagination
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, ErrInvalidRole
	}

	users, total, err := s.repo.ListUsers(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &models.UserListResponse{
		Users:   users,
		Total:   total,
		Skip:    filter.Offset,
		Limit:   filter.Limit,
		HasNext: filter.Offset+filter.Limit < total,
	}, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateRole changes the role of id. actor is nil for command line changes.
func (s *Service) UpdateRole(ctx context.Context, actor *models.User, id uuid.UUID, role models.Role, reason *string) (*models.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if actor != nil && actor.ID == id && role != models.RoleAdmin {
		return nil, ErrSelfDemotion
	}

	user, err := s.repo.UpdateRole(ctx, id, role, repository.AuditChange{
		AdminID: actorID(actor),
		Action:  models.RoleChangeAction(role),
		Details: reason,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user role changed",
		"admin_id", actorID(actor),
		"user_id", id,
		"role", role,
		"reason", reasonText(reason),
	)
	return user, nil
}

// UpdateStatus activates or deactivates id. A deactivated user's cached reset
// token is dropped along with the change.
func (s *Service) UpdateStatus(ctx context.Context, actor *models.User, id uuid.UUID, active bool, reason *string) (*models.User, error) {
	if actor != nil && actor.ID == id && !active {
		return nil, ErrSelfDeactivation
	}

	action := models.AuditUserActivated
	if !active {
		action = models.AuditUserDeactivated
	}

	user, err := s.repo.UpdateStatus(ctx, id, active, repository.AuditChange{
		AdminID: actorID(actor),
		Action:  action,
		Details: reason,
	})
	if err != nil {
		return nil, err
	}

	if !active {
		if err := s.tracker.InvalidateResetToken(ctx, id); err != nil {
			s.logger.Warn("failed to drop cached reset token", "user_id", id, "error", err)
		}
	}

	s.logger.Info("user status changed",
		"admin_id", actorID(actor),
		"user_id", id,
		"action", action,
		"reason", reasonText(reason),
	)
	return user, nil
}

// SetRoleByUsername is the command line entry point for role changes
func (s *Service) SetRoleByUsername(ctx context.Context, username string, role models.Role) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	reason := "command line"
	return s.UpdateRole(ctx, nil, user.ID, role, &reason)
}

// Stats counts users per role and reports the attempt tracker's state
func (s *Service) Stats(ctx context.Context) (*models.SystemStats, error) {
	counts, err := s.repo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}

	users := models.UserCounts{
		Admins:     counts[models.RoleAdmin],
		Moderators: counts[models.RoleModerator],
		Users:      counts[models.RoleUser],
	}
	for _, n := range counts {
		users.Total += n
	}

	return &models.SystemStats{
		Users:     users,
		Cache:     s.tracker.Stats(ctx),
		Timestamp: s.now().UTC(),
		Status:    "operational",
	}, nil
}

// AuditLog returns the most recent admin actions
func (s *Service) AuditLog(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit < 1 || limit > MaxLimit {
		return nil, ErrInvalidPagination
	}
	return s.repo.ListAudit(ctx, limit)
}

func actorID(actor *models.User) uuid.UUID {
	if actor == nil {
		return uuid.Nil
	}
	return actor.ID
}

func reasonText(reason *string) string {
	if reason == nil || *reason == "" {
		return "no reason provided"
	}
	return *reason
}
