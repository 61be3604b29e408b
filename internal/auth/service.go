// Package auth implements registration, login, email verification and the
// password reset flow on top of the credential store, the token service and
// the attempt tracker.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"contactsapi/internal/config"
	"contactsapi/internal/email"
	"contactsapi/internal/models"
	"contactsapi/internal/repository"
	"contactsapi/internal/token"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AttemptTracker is the subset of attempt.Tracker used here
type AttemptTracker interface {
	CheckAndIncrement(ctx context.Context, key string, max int, window time.Duration) (bool, error)
	CacheResetToken(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error
	GetResetToken(ctx context.Context, userID uuid.UUID) (string, bool, error)
	InvalidateResetToken(ctx context.Context, userID uuid.UUID) error
}

// Limit names used in rate limit keys and RateLimitError
const (
	LimitLogin        = "login"
	LimitRegister     = "register"
	LimitResetIP      = "password_reset"
	LimitResetEmail   = "password_reset_email"
	LimitResetConfirm = "password_reset_confirm"
	LimitVerification = "email_verification"
)

// Service is the authentication orchestrator
type Service struct {
	cfg      *config.Config
	users    repository.UserRepository
	tokens   *token.Service
	attempts AttemptTracker
	mailer   email.Sender
	hasher   *PasswordHasher
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithHasher replaces the default bcrypt hasher
func WithHasher(h *PasswordHasher) Option {
	return func(s *Service) {
		s.hasher = h
	}
}

// NewService creates a new authentication service
func NewService(
	cfg *config.Config,
	users repository.UserRepository,
	tokens *token.Service,
	attempts AttemptTracker,
	mailer email.Sender,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		cfg:      cfg,
		users:    users,
		tokens:   tokens,
		attempts: attempts,
		mailer:   mailer,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hasher == nil {
		h, err := NewPasswordHasher(bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		s.hasher = h
	}
	return s, nil
}

// RegisterInput holds the fields of a new account
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName *string
}

// LoginResult is returned by a successful login
type LoginResult struct {
	AccessToken string
	ExpiresIn   time.Duration
	User        *models.User
}

// SessionTTL is the lifetime of issued session tokens
func (s *Service) SessionTTL() time.Duration {
	return s.cfg.Auth.SessionTokenTTL
}

func normalizeEmail(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// gate counts an attempt for key under the named limit
func (s *Service) gate(ctx context.Context, name, key string, limit config.Limit) error {
	if key == "" {
		key = "unknown"
	}
	allowed, err := s.attempts.CheckAndIncrement(ctx, name+":"+key, limit.Max, limit.Window)
	if err != nil {
		return unavailable(err)
	}
	if !allowed {
		s.logger.Warn("rate limit exceeded", "limit", name)
		return &RateLimitError{Limit: name, RetryAfter: limit.Window}
	}
	return nil
}

// lookup maps a not-found result to a nil user
func lookup(user *models.User, err error) (*models.User, error) {
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return user, nil
}

// Register creates a new account and queues the verification email
func (s *Service) Register(ctx context.Context, in RegisterInput, source string) (*models.User, error) {
	if !s.cfg.Auth.RegistrationOpen {
		return nil, ErrRegistrationClosed
	}
	if err := s.gate(ctx, LimitRegister, source, s.cfg.RateLimit.Register); err != nil {
		return nil, err
	}

	address := normalizeEmail(in.Email)

	existing, err := lookup(s.users.GetByUsername(ctx, in.Username))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict
	}
	existing, err = lookup(s.users.GetByEmail(ctx, address))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        address,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         models.RoleUser,
		IsActive:     !s.cfg.Auth.RequireEmailVerification,
	}

	verification, err := s.tokens.IssueVerificationToken(user.ID, s.cfg.Auth.VerificationTokenTTL)
	if err != nil {
		return nil, err
	}
	user.VerificationToken = &verification

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, unavailable(err)
	}

	s.send(ctx, user, email.TemplateVerifyEmail, verification)
	s.logger.Info("user registered", "user_id", user.ID)

	return user, nil
}

// Login checks credentials and issues a session token. Unknown users,
// inactive accounts and wrong passwords all fail with ErrUnauthorized after
// the same password comparison.
func (s *Service) Login(ctx context.Context, username, password, source string) (*LoginResult, error) {
	if err := s.gate(ctx, LimitLogin, source, s.cfg.RateLimit.Login); err != nil {
		return nil, err
	}

	user, err := lookup(s.users.GetByUsername(ctx, username))
	if err != nil {
		return nil, err
	}

	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}
	matched := s.hasher.Compare(hash, password)

	if user == nil || !matched || !user.IsActive {
		return nil, ErrUnauthorized
	}

	accessToken, err := s.tokens.IssueSessionToken(user.ID, s.cfg.Auth.SessionTokenTTL)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken: accessToken,
		ExpiresIn:   s.cfg.Auth.SessionTokenTTL,
		User:        user,
	}, nil
}

// Authenticate resolves a session token to an active user
func (s *Service) Authenticate(ctx context.Context, sessionToken string) (*models.User, error) {
	userID, err := s.tokens.VerifySessionToken(sessionToken)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := lookup(s.users.GetByID(ctx, userID))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// RequestPasswordReset issues a reset token for an active account with the
// given email. The result is the same whether or not such an account exists.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddress, source string) error {
	address := normalizeEmail(emailAddress)

	if err := s.gate(ctx, LimitResetIP, source, s.cfg.RateLimit.ResetPerIP); err != nil {
		return err
	}
	if err := s.gate(ctx, LimitResetEmail, address, s.cfg.RateLimit.ResetPerEmail); err != nil {
		return err
	}

	user, err := lookup(s.users.GetByEmail(ctx, address))
	if err != nil {
		return err
	}

	// Missing and inactive accounts run the same writes against a subject that
	// matches no eligible row, so the request costs the same either way.
	subject := uuid.New()
	if user != nil {
		subject = user.ID
	}

	ttl := s.cfg.Auth.ResetTokenTTL
	resetToken, err := s.tokens.IssueResetToken(subject, ttl)
	if err != nil {
		return err
	}

	stored := true
	if err := s.users.SetResetToken(ctx, subject, resetToken, s.now().Add(ttl)); err != nil {
		stored = false
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Error("failed to store reset token", "user_id", subject, "error", err)
		}
	}

	if stored {
		err = s.attempts.CacheResetToken(ctx, subject, resetToken, ttl)
	} else {
		err = s.attempts.InvalidateResetToken(ctx, subject)
	}
	if err != nil {
		s.logger.Warn("failed to update reset token cache", "user_id", subject, "error", err)
	}

	if stored {
		s.send(ctx, user, email.TemplatePasswordReset, resetToken)
	}
	return nil
}

// ConfirmPasswordReset sets a new password using a reset token. A token can
// be used once; concurrent confirms with the same token have one winner.
func (s *Service) ConfirmPasswordReset(ctx context.Context, resetToken, newPassword, source string) error {
	if err := s.gate(ctx, LimitResetConfirm, source, s.cfg.RateLimit.ResetConfirm); err != nil {
		return err
	}

	userID, err := s.tokens.VerifyResetToken(resetToken)
	if err != nil {
		return ErrInvalidToken
	}

	user, err := lookup(s.users.GetByResetToken(ctx, resetToken))
	if err != nil {
		return err
	}
	if user == nil || user.ID != userID || !user.IsActive || !user.HasResetToken(resetToken, s.now()) {
		return ErrInvalidToken
	}

	cached, ok, err := s.attempts.GetResetToken(ctx, userID)
	if err != nil {
		return unavailable(err)
	}
	if ok && cached != resetToken {
		return ErrInvalidToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.ConsumeResetToken(ctx, userID, resetToken, hash); err != nil {
		if errors.Is(err, repository.ErrResetTokenInvalid) {
			return ErrInvalidToken
		}
		return unavailable(err)
	}

	if err := s.attempts.InvalidateResetToken(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate cached reset token", "user_id", userID, "error", err)
	}

	s.logger.Info("password reset completed", "user_id", userID)
	return nil
}

// VerifyEmail marks the account owning verificationToken as verified and active
func (s *Service) VerifyEmail(ctx context.Context, verificationToken, source string) error {
	if err := s.gate(ctx, LimitVerification, source, s.cfg.RateLimit.Verification); err != nil {
		return err
	}

	userID, err := s.tokens.VerifyVerificationToken(verificationToken)
	if err != nil {
		return ErrInvalidToken
	}

	user, err := lookup(s.users.GetByID(ctx, userID))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidToken
	}
	if user.IsVerified {
		return nil
	}
	if user.VerificationToken == nil || *user.VerificationToken != verificationToken {
		return ErrInvalidToken
	}

	if err := s.users.MarkVerified(ctx, userID, verificationToken); err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return ErrInvalidToken
		}
		return unavailable(err)
	}
	return nil
}

// ResendVerification sends a fresh verification email to an unverified
// account. The result is the same whether or not such an account exists.
func (s *Service) ResendVerification(ctx context.Context, emailAddress, source string) error {
	address := normalizeEmail(emailAddress)

	if err := s.gate(ctx, LimitVerification, source, s.cfg.RateLimit.Verification); err != nil {
		return err
	}

	user, err := lookup(s.users.GetByEmail(ctx, address))
	if err != nil {
		return err
	}

	subject := uuid.New()
	if user != nil {
		subject = user.ID
	}

	verification, err := s.tokens.IssueVerificationToken(subject, s.cfg.Auth.VerificationTokenTTL)
	if err != nil {
		return err
	}

	if err := s.users.SetVerificationToken(ctx, subject, verification); err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Error("failed to store verification token", "user_id", subject, "error", err)
		}
		return nil
	}
	s.send(ctx, user, email.TemplateVerifyEmail, verification)
	return nil
}

// send hands a message to the mailer without waiting for delivery
func (s *Service) send(ctx context.Context, user *models.User, template, tok string) {
	err := s.mailer.Send(ctx, email.Message{
		To:       user.Email,
		Template: template,
		Params: map[string]string{
			"username": user.Username,
			"token":    tok,
		},
	})
	if err != nil {
		s.logger.Error("failed to queue email", "template", template, "user_id", user.ID, "error", err)
	}
}
