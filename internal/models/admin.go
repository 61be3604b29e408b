package models

import (
	"time"

	"contactsapi/internal/attempt"

	"github.com/google/uuid"
)

// Role grants access to administrative endpoints
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Roles lists every role in ascending privilege
var Roles = []Role{RoleUser, RoleModerator, RoleAdmin}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Audit actions
const (
	AuditUserActivated   = "user_activated"
	AuditUserDeactivated = "user_deactivated"
)

// RoleChangeAction is the audit action for a change to role
func RoleChangeAction(role Role) string {
	return "role_change_to_" + string(role)
}

// AuditEntry records one administrative change. AdminID is nil for changes
// made from the command line.
type AuditEntry struct {
	ID           uuid.UUID  `json:"id"`
	AdminID      *uuid.UUID `json:"admin_id,omitempty"`
	Action       string     `json:"action"`
	TargetUserID uuid.UUID  `json:"target_user_id"`
	Details      *string    `json:"details,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// UpdateRoleRequest represents a role change
type UpdateRoleRequest struct {
	Role Role `json:"role" binding:"required,oneof=user moderator admin" example:"moderator"`
}

// UpdateStatusRequest represents an activation or deactivation
type UpdateStatusRequest struct {
	IsActive *bool   `json:"is_active" binding:"required" example:"false"`
	Reason   *string `json:"reason,omitempty" binding:"omitempty,max=500" example:"spam"`
}

// UserListResponse is one page of the admin user listing
type UserListResponse struct {
	Users   []User `json:"users"`
	Total   int    `json:"total" example:"42"`
	Skip    int    `json:"skip" example:"0"`
	Limit   int    `json:"limit" example:"50"`
	HasNext bool   `json:"has_next" example:"false"`
}

// UserCounts breaks the user total down by role
type UserCounts struct {
	Total      int `json:"total"`
	Admins     int `json:"admins"`
	Moderators int `json:"moderators"`
	Users      int `json:"regular_users"`
}

// SystemStats is the admin dashboard summary
type SystemStats struct {
	Users     UserCounts    `json:"users"`
	Cache     attempt.Stats `json:"cache"`
	Timestamp time.Time     `json:"timestamp"`
	Status    string        `json:"status" example:"operational"`
}
