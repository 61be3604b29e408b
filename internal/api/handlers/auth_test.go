package handlers_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"contactsapi/internal/config"
	"contactsapi/internal/email"
	"contactsapi/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*config.Config)
		setup      func(*testServer)
		body       any
		wantStatus int
		wantErr    string
	}{
		{
			name:       "Success",
			body:       models.CreateUserRequest{Username: "alice", Email: "Alice@Example.com", Password: "secret1"},
			wantStatus: http.StatusCreated,
		},
		{
			name: "Duplicate Username",
			setup: func(s *testServer) {
				s.env.CreateTestUser("alice", "alice@example.com", "secret1")
			},
			body:       models.CreateUserRequest{Username: "alice", Email: "other@example.com", Password: "secret1"},
			wantStatus: http.StatusConflict,
			wantErr:    "username or email already registered",
		},
		{
			name:       "Invalid Email",
			body:       map[string]string{"username": "alice", "email": "not-an-email", "password": "secret1"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Username With Spaces",
			body:       models.CreateUserRequest{Username: "al ice", Email: "alice@example.com", Password: "secret1"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Registration Closed",
			mutate:     func(cfg *config.Config) { cfg.Auth.RegistrationOpen = false },
			body:       models.CreateUserRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"},
			wantStatus: http.StatusForbidden,
			wantErr:    "registration is closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mutate []func(*config.Config)
			if tt.mutate != nil {
				mutate = append(mutate, tt.mutate)
			}
			s := newTestServer(t, serverOptions{}, mutate...)
			if tt.setup != nil {
				tt.setup(s)
			}

			w := s.do(http.MethodPost, "/api/v1/auth/register", tt.body, "")
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantErr != "" {
				require.Equal(t, tt.wantErr, errorBody(t, w))
			}
			if tt.wantStatus == http.StatusCreated {
				var user models.User
				decode(t, w, &user)
				require.Equal(t, "alice", user.Username)
				require.Equal(t, "alice@example.com", user.Email)
				require.True(t, user.IsActive)
				require.False(t, user.IsVerified)
				require.NotContains(t, w.Body.String(), "password")

				_, sent := s.env.Mail.Last(email.TemplateVerifyEmail, "alice@example.com")
				require.True(t, sent)
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantErr    string
	}{
		{
			name:       "Success",
			body:       models.LoginRequest{Username: "alice", Password: "secret1"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "Wrong Password",
			body:       models.LoginRequest{Username: "alice", Password: "wrong"},
			wantStatus: http.StatusUnauthorized,
			wantErr:    "invalid credentials",
		},
		{
			name:       "Unknown User",
			body:       models.LoginRequest{Username: "mallory", Password: "secret1"},
			wantStatus: http.StatusUnauthorized,
			wantErr:    "invalid credentials",
		},
		{
			name:       "Missing Password",
			body:       map[string]string{"username": "alice"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, serverOptions{})
			s.env.CreateTestUser("alice", "alice@example.com", "secret1")

			w := s.do(http.MethodPost, "/api/v1/auth/login", tt.body, "")
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantErr != "" {
				require.Equal(t, tt.wantErr, errorBody(t, w))
				return
			}
			if tt.wantStatus == http.StatusOK {
				var resp models.TokenResponse
				decode(t, w, &resp)
				require.NotEmpty(t, resp.AccessToken)
				require.Equal(t, "bearer", resp.TokenType)
				require.Equal(t, 1800, resp.ExpiresIn)

				me := s.do(http.MethodGet, "/api/v1/auth/me", nil, resp.AccessToken)
				require.Equal(t, http.StatusOK, me.Code)
			}
		})
	}
}

func TestAuthHandler_LoginRateLimited(t *testing.T) {
	s := newTestServer(t, serverOptions{}, func(cfg *config.Config) {
		cfg.RateLimit.Login = config.Limit{Max: 2, Window: time.Minute}
	})
	s.env.CreateTestUser("alice", "alice@example.com", "secret1")

	for i := 0; i < 2; i++ {
		w := s.do(http.MethodPost, "/api/v1/auth/login", models.LoginRequest{Username: "alice", Password: "wrong"}, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := s.do(http.MethodPost, "/api/v1/auth/login", models.LoginRequest{Username: "alice", Password: "secret1"}, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))
	require.Contains(t, errorBody(t, w), "login")

	s.env.Clock.Advance(time.Minute)
	s.login("alice", "secret1")
}

func TestAuthHandler_PasswordResetFlow(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	s.env.CreateTestUser("alice", "alice@example.com", "secret1")

	known := s.do(http.MethodPost, "/api/v1/auth/password-reset", models.PasswordResetRequest{Email: "alice@example.com"}, "")
	unknown := s.do(http.MethodPost, "/api/v1/auth/password-reset", models.PasswordResetRequest{Email: "nobody@example.com"}, "")
	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, unknown.Code)
	require.Equal(t, known.Body.String(), unknown.Body.String())

	msg, ok := s.env.Mail.Last(email.TemplatePasswordReset, "alice@example.com")
	require.True(t, ok)
	_, ok = s.env.Mail.Last(email.TemplatePasswordReset, "nobody@example.com")
	require.False(t, ok)

	confirm := models.CompleteResetRequest{Token: msg.Params["token"], NewPassword: "secret2"}
	w := s.do(http.MethodPost, "/api/v1/auth/password-reset/confirm", confirm, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/auth/password-reset/confirm", models.CompleteResetRequest{Token: msg.Params["token"], NewPassword: "secret3"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid or expired token", errorBody(t, w))

	w = s.do(http.MethodPost, "/api/v1/auth/login", models.LoginRequest{Username: "alice", Password: "secret1"}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	s.login("alice", "secret2")
}

func TestAuthHandler_ConfirmPasswordReset_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{name: "Garbage Token", body: models.CompleteResetRequest{Token: "garbage", NewPassword: "secret2"}},
		{name: "Short Password", body: models.CompleteResetRequest{Token: "garbage", NewPassword: "abc"}},
		{name: "Missing Token", body: map[string]string{"new_password": "secret2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, serverOptions{})
			w := s.do(http.MethodPost, "/api/v1/auth/password-reset/confirm", tt.body, "")
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAuthHandler_VerifyEmail(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	s.env.CreateTestUser("alice", "alice@example.com", "secret1")

	w := s.do(http.MethodGet, "/api/v1/auth/verify-email", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "verification token is required", errorBody(t, w))

	w = s.do(http.MethodGet, "/api/v1/auth/verify-email?token=garbage", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	msg, ok := s.env.Mail.Last(email.TemplateVerifyEmail, "alice@example.com")
	require.True(t, ok)
	w = s.do(http.MethodGet, "/api/v1/auth/verify-email?token="+msg.Params["token"], nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	me := s.do(http.MethodGet, "/api/v1/auth/me", nil, s.login("alice", "secret1"))
	var user models.User
	decode(t, me, &user)
	require.True(t, user.IsVerified)
}

func TestAuthHandler_ResendVerification_Uniform(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	s.env.CreateTestUser("alice", "alice@example.com", "secret1")

	known := s.do(http.MethodPost, "/api/v1/auth/resend-verification", models.ResendVerificationRequest{Email: "alice@example.com"}, "")
	unknown := s.do(http.MethodPost, "/api/v1/auth/resend-verification", models.ResendVerificationRequest{Email: "nobody@example.com"}, "")

	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, unknown.Code)
	require.Equal(t, known.Body.String(), unknown.Body.String())
}

func TestAuthHandler_Unavailable(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	s.env.Users.Err = context.DeadlineExceeded

	w := s.do(http.MethodPost, "/api/v1/auth/login", models.LoginRequest{Username: "alice", Password: "secret1"}, "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "service temporarily unavailable", errorBody(t, w))
}

func multipartFile(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestAuthHandler_UploadAvatar(t *testing.T) {
	tests := []struct {
		name       string
		opts       serverOptions
		field      string
		content    []byte
		wantStatus int
	}{
		{
			name:       "Success",
			field:      "file",
			content:    pngHeader,
			wantStatus: http.StatusOK,
		},
		{
			name:       "Missing File",
			field:      "",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Unsupported Type",
			field:      "file",
			content:    []byte("just some text, not an image"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Too Large",
			opts:       serverOptions{maxAvatarSize: 8},
			field:      "file",
			content:    pngHeader,
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:       "Storage Not Configured",
			opts:       serverOptions{noAvatarStore: true},
			field:      "file",
			content:    pngHeader,
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.opts)
			user := s.env.CreateTestUser("alice", "alice@example.com", "secret1")
			token := s.env.GetTestJWT(user)

			body, contentType := multipartFile(t, tt.field, "avatar.png", tt.content)
			w := s.request(http.MethodPost, "/api/v1/auth/avatar", body, contentType, token)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantStatus == http.StatusOK {
				var updated models.User
				decode(t, w, &updated)
				require.NotNil(t, updated.AvatarURL)
				assert.Equal(t, s.avatars.URL(user.ID), *updated.AvatarURL)
				assert.Equal(t, pngHeader, s.avatars.Data(user.ID))
			}
		})
	}
}

func TestAuthHandler_DeleteAvatar(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	user := s.env.CreateTestUser("alice", "alice@example.com", "secret1")
	token := s.env.GetTestJWT(user)

	body, contentType := multipartFile(t, "file", "avatar.png", pngHeader)
	w := s.request(http.MethodPost, "/api/v1/auth/avatar", body, contentType, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/auth/avatar", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.User
	decode(t, w, &updated)
	require.Nil(t, updated.AvatarURL)
	require.Nil(t, s.avatars.Data(user.ID))
}

func TestAuthHandler_MeRequiresToken(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	w := s.do(http.MethodGet, "/api/v1/auth/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "no authorization header", errorBody(t, w))
}
