package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"contactsapi/internal/api/routes"
	"contactsapi/internal/avatar"
	"contactsapi/internal/config"
	"contactsapi/internal/contacts"
	"contactsapi/internal/models"
	"contactsapi/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p *fakePinger) PingContext(context.Context) error {
	return p.err
}

type testServer struct {
	t       *testing.T
	env     *testutil.Env
	db      *fakePinger
	avatars *testutil.AvatarStore
	router  *gin.Engine
}

type serverOptions struct {
	noAvatarStore bool
	maxAvatarSize int64
}

func newTestServer(t *testing.T, opts serverOptions, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	env := testutil.NewEnv(t, mutate...)

	s := &testServer{
		t:       t,
		env:     env,
		db:      &fakePinger{},
		avatars: testutil.NewAvatarStore(),
	}

	var store avatar.Store = s.avatars
	if opts.noAvatarStore {
		store = nil
	}
	maxSize := opts.maxAvatarSize
	if maxSize == 0 {
		maxSize = env.Config.Cloudinary.MaxFileSize
	}

	contactService := contacts.NewService(env.Contacts)
	contactService.SetClock(env.Clock.Now)

	s.router = routes.SetupRoutes(routes.Dependencies{
		Config:   env.Config,
		DB:       s.db,
		Tracker:  env.Tracker,
		Auth:     env.Auth,
		Admin:    env.Admin,
		Avatars:  avatar.NewService(store, env.Users, maxSize, nil),
		Contacts: contactService,
	})
	return s
}

func (s *testServer) request(method, path string, body io.Reader, contentType, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "203.0.113.7:4242"

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	if body == nil {
		return s.request(method, path, nil, "", token)
	}
	data, err := json.Marshal(body)
	require.NoError(s.t, err)
	return s.request(method, path, bytes.NewReader(data), "application/json", token)
}

// login returns a session token for an existing user
func (s *testServer) login(username, password string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/auth/login", models.LoginRequest{Username: username, Password: password}, "")
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var resp models.TokenResponse
	decode(s.t, w, &resp)
	return resp.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	decode(t, w, &resp)
	return resp.Error
}

var errDown = errors.New("connection refused")
