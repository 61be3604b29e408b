package models

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50" example:"alice"`
	Password string `json:"password" binding:"required" example:"s3cret-pass"`
}

// PasswordResetRequest represents a password reset request
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email" example:"alice@example.com"`
}

// CompleteResetRequest represents the request to complete a password reset
type CompleteResetRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=72"`
}

// ResendVerificationRequest represents a request to resend verification email
type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email" example:"alice@example.com"`
}
