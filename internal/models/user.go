package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account
type User struct {
	ID                  uuid.UUID  `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	FullName            *string    `json:"full_name,omitempty"`
	AvatarURL           *string    `json:"avatar_url,omitempty"`
	IsActive            bool       `json:"is_active"`
	IsVerified          bool       `json:"is_verified"`
	Role                Role       `json:"role"`
	VerificationToken   *string    `json:"-"`
	ResetToken          *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// HasResetToken reports whether token is the user's outstanding, unexpired reset token
func (u *User) HasResetToken(token string, now time.Time) bool {
	if u.ResetToken == nil || u.ResetTokenExpiresAt == nil {
		return false
	}
	return *u.ResetToken == token && now.Before(*u.ResetTokenExpiresAt)
}

// CreateUserRequest represents the request to register a new user
type CreateUserRequest struct {
	Username string  `json:"username" binding:"required,min=3,max=50,nospaces" example:"alice"`
	Email    string  `json:"email" binding:"required,email,max=100" example:"alice@example.com"`
	Password string  `json:"password" binding:"required,min=6,max=72" example:"s3cret-pass"`
	FullName *string `json:"full_name,omitempty" binding:"omitempty,max=100" example:"Alice Liddell"`
}
