// Package token issues and verifies the signed tokens used for sessions,
// password resets and email verification.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers malformed, badly signed, expired and wrong-purpose tokens
var ErrInvalidToken = errors.New("invalid token")

// Purpose tags what a token may be used for. It is part of the signed payload.
type Purpose string

const (
	PurposeSession           Purpose = "session"
	PurposePasswordReset     Purpose = "password_reset"
	PurposeEmailVerification Purpose = "email_verification"
)

// Claims are the JWT claims carried by every token
type Claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Service signs tokens with a single process-wide HS256 secret
type Service struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a token service. The secret is copied and never changes afterwards.
func NewService(secret string, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	s := &Service{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueSessionToken returns a session token for userID valid for ttl
func (s *Service) IssueSessionToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	return s.issue(PurposeSession, userID, ttl)
}

// VerifySessionToken returns the user id of a valid session token
func (s *Service) VerifySessionToken(tokenString string) (uuid.UUID, error) {
	return s.verify(PurposeSession, tokenString)
}

// IssueResetToken returns a password reset token for userID valid for ttl
func (s *Service) IssueResetToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	return s.issue(PurposePasswordReset, userID, ttl)
}

// VerifyResetToken returns the user id of a valid password reset token
func (s *Service) VerifyResetToken(tokenString string) (uuid.UUID, error) {
	return s.verify(PurposePasswordReset, tokenString)
}

// IssueVerificationToken returns an email verification token for userID valid for ttl
func (s *Service) IssueVerificationToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	return s.issue(PurposeEmailVerification, userID, ttl)
}

// VerifyVerificationToken returns the user id of a valid email verification token
func (s *Service) VerifyVerificationToken(tokenString string) (uuid.UUID, error) {
	return s.verify(PurposeEmailVerification, tokenString)
}

func (s *Service) issue(purpose Purpose, userID uuid.UUID, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	now := s.now()
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) verify(purpose Purpose, tokenString string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	if claims.Purpose != purpose {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}
