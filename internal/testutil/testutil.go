// Package testutil provides utilities for testing
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"contactsapi/internal/admin"
	"contactsapi/internal/attempt"
	"contactsapi/internal/auth"
	"contactsapi/internal/config"
	"contactsapi/internal/models"
	"contactsapi/internal/token"
	"contactsapi/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestSecret signs every token issued in tests
const TestSecret = "test-secret"

var validatorsOnce sync.Once

// TestConfig returns a config suitable for tests without reading the environment
func TestConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			Port:            "8080",
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: time.Second,
		},
		Auth: config.AuthConfig{
			JWTSecret:            TestSecret,
			SessionTokenTTL:      30 * time.Minute,
			ResetTokenTTL:        time.Hour,
			VerificationTokenTTL: 24 * time.Hour,
			RegistrationOpen:     true,
		},
		RateLimit: config.RateLimitConfig{
			Requests:      1000,
			Window:        60,
			Burst:         50,
			Login:         config.Limit{Max: 10, Window: time.Minute},
			Register:      config.Limit{Max: 10, Window: time.Minute},
			ResetPerEmail: config.Limit{Max: 3, Window: time.Hour},
			ResetPerIP:    config.Limit{Max: 10, Window: time.Hour},
			ResetConfirm:  config.Limit{Max: 10, Window: 15 * time.Minute},
			Verification:  config.Limit{Max: 10, Window: time.Minute},
		},
		Email: config.EmailConfig{
			AppURL:    "http://localhost:8080",
			QueueSize: 10,
		},
		Cloudinary: config.CloudinaryConfig{
			Folder:      "avatars",
			MaxFileSize: 5 << 20,
		},
		Scheduler: config.SchedulerConfig{
			CleanupSchedule: "@every 1h",
		},
	}
}

// Clock is a manually advanced clock
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at a fixed whole second
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 3, 20, 13, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Env holds an auth service wired to in-memory collaborators
type Env struct {
	T        *testing.T
	Config   *config.Config
	Clock    *Clock
	Users    *UserStore
	Contacts *ContactStore
	Mail     *MailRecorder
	Tokens   *token.Service
	Tracker  *attempt.Tracker
	Auth     *auth.Service
	Admin    *admin.Service
}

// NewEnv builds an Env. mutate, if given, adjusts the config before wiring.
func NewEnv(t *testing.T, mutate ...func(*config.Config)) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)
	validatorsOnce.Do(validation.Initialize)

	cfg := TestConfig()
	for _, m := range mutate {
		m(cfg)
	}

	clock := NewClock()
	users := NewUserStore()
	users.Now = clock.Now

	tokens, err := token.NewService(cfg.Auth.JWTSecret, token.WithClock(clock.Now))
	require.NoError(t, err)

	tracker := attempt.NewTracker(nil, nil)
	tracker.Fallback().SetClock(clock.Now)

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	mail := &MailRecorder{}
	svc, err := auth.NewService(cfg, users, tokens, tracker, mail,
		auth.WithClock(clock.Now),
		auth.WithHasher(hasher),
	)
	require.NoError(t, err)

	adminSvc := admin.NewService(users, users, tracker, nil)
	adminSvc.SetClock(clock.Now)

	return &Env{
		T:        t,
		Config:   cfg,
		Clock:    clock,
		Users:    users,
		Contacts: NewContactStore(),
		Mail:     mail,
		Tokens:   tokens,
		Tracker:  tracker,
		Auth:     svc,
		Admin:    adminSvc,
	}
}

// CreateTestUser registers an active user through the auth service
func (e *Env) CreateTestUser(username, email, password string) *models.User {
	e.T.Helper()
	user, err := e.Auth.Register(context.Background(), auth.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	}, "setup")
	require.NoError(e.T, err, "Failed to create test user")
	return user
}

// CreateTestAdmin registers an active user and grants it the admin role
func (e *Env) CreateTestAdmin(username, email, password string) *models.User {
	e.T.Helper()
	user := e.CreateTestUser(username, email, password)
	promoted, err := e.Admin.UpdateRole(context.Background(), nil, user.ID, models.RoleAdmin, nil)
	require.NoError(e.T, err, "Failed to promote test admin")
	return promoted
}

// GetTestJWT returns a session token for user
func (e *Env) GetTestJWT(user *models.User) string {
	e.T.Helper()
	tok, err := e.Tokens.IssueSessionToken(user.ID, e.Config.Auth.SessionTokenTTL)
	require.NoError(e.T, err, "Failed to generate test JWT")
	return tok
}
