package repository

import "errors"

var (
	// Common errors
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	// ErrUnavailable wraps every backend failure that is not a known case
	ErrUnavailable = errors.New("storage unavailable")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("username or email already exists")

	// Token errors
	ErrTokenInvalid      = errors.New("token invalid")
	ErrResetTokenInvalid = errors.New("invalid reset token")

	// Contact errors
	ErrContactNotFound = errors.New("contact not found")
)
