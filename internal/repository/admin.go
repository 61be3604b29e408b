package repository

import (
	"context"

	"contactsapi/internal/models"

	"github.com/google/uuid"
)

// AdminRepository covers user management. Role and status changes write their
// audit entry in the same transaction as the change itself.
type AdminRepository interface {
	// ListUsers returns one page of users ordered by username and the number of
	// users matching filter across all pages
	ListUsers(ctx context.Context, filter UserFilter) ([]models.User, int, error)
	// CountByRole returns the number of users holding each role
	CountByRole(ctx context.Context) (map[models.Role]int, error)
	// UpdateRole sets the role of id and records change. Returns ErrUserNotFound
	// when id does not exist.
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role, change AuditChange) (*models.User, error)
	// UpdateStatus activates or deactivates id and records change
	UpdateStatus(ctx context.Context, id uuid.UUID, active bool, change AuditChange) (*models.User, error)
	// ListAudit returns the most recent audit entries, newest first
	ListAudit(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

// UserFilter narrows ListUsers. Search matches username or email
// case-insensitively; an empty Role matches every role.
type UserFilter struct {
	Role   models.Role
	Search string
	Offset int
	Limit  int
}

// AuditChange is the audit record written alongside an admin update
type AuditChange struct {
	// AdminID is uuid.Nil for changes made from the command line
	AdminID uuid.UUID
	Action  string
	Details *string
}
