package email_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"contactsapi/internal/config"
	"contactsapi/internal/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEmailConfig() config.EmailConfig {
	return config.EmailConfig{
		SMTPHost:     "smtp.example.com",
		SMTPPort:     587,
		SMTPUsername: "testuser",
		SMTPPassword: "testpass",
		FromAddress:  "noreply@example.com",
		FromName:     "Contacts API",
		SMTPTLS:      true,
		AppURL:       "https://example.com",
	}
}

func TestNewService(t *testing.T) {
	svc, err := email.NewService(validEmailConfig())
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestNewService_MissingHost(t *testing.T) {
	cfg := validEmailConfig()
	cfg.SMTPHost = ""

	_, err := email.NewService(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP host is required")
}

func TestNewService_MissingFrom(t *testing.T) {
	cfg := validEmailConfig()
	cfg.FromAddress = ""

	_, err := email.NewService(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP from address is required")
}

func TestRender(t *testing.T) {
	tests := []struct {
		name        string
		template    string
		wantSubject string
		wantLink    string
	}{
		{
			name:        "Verify Email",
			template:    email.TemplateVerifyEmail,
			wantSubject: "Verify Your Email Address",
			wantLink:    "https://example.com/api/v1/auth/verify-email?token=a.b%2Bc",
		},
		{
			name:        "Password Reset",
			template:    email.TemplatePasswordReset,
			wantSubject: "Reset Your Password",
			wantLink:    "https://example.com/reset-password?token=a.b%2Bc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body, err := email.Render(email.Message{
				To:       "alice@example.com",
				Template: tt.template,
				Params:   map[string]string{"username": "alice", "token": "a.b+c"},
			}, "https://example.com/")
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubject, subject)
			assert.Contains(t, body, "Hello alice")
			assert.Contains(t, body, tt.wantLink)
		})
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, err := email.Render(email.Message{Template: "nope"}, "https://example.com")
	require.Error(t, err)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func TestQueue_DeliversInBackground(t *testing.T) {
	sender := &recordingSender{}
	q := email.NewQueue(sender, 10, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Send(context.Background(), email.Message{To: "a@example.com", Template: email.TemplateVerifyEmail}))
	}
	q.Close()

	require.Len(t, sender.sent, 5)
	require.ErrorIs(t, q.Send(context.Background(), email.Message{}), email.ErrQueueClosed)
}

func TestQueue_SenderErrorsDoNotStopWorker(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	q := email.NewQueue(sender, 10, nil)

	require.NoError(t, q.Send(context.Background(), email.Message{Template: email.TemplatePasswordReset}))
	require.NoError(t, q.Send(context.Background(), email.Message{Template: email.TemplatePasswordReset}))
	q.Close()

	require.Len(t, sender.sent, 2)
}

func TestQueue_Full(t *testing.T) {
	block := make(chan struct{})
	sender := &blockingSender{release: block}
	q := email.NewQueue(sender, 1, nil)

	// First message is taken by the worker, second fills the buffer.
	require.NoError(t, q.Send(context.Background(), email.Message{}))
	require.Eventually(t, sender.started, time.Second, time.Millisecond)
	require.NoError(t, q.Send(context.Background(), email.Message{}))
	require.ErrorIs(t, q.Send(context.Background(), email.Message{}), email.ErrQueueFull)

	close(block)
	q.Close()
}

type blockingSender struct {
	release chan struct{}
	begun   atomic.Bool
}

func (s *blockingSender) started() bool {
	return s.begun.Load()
}

func (s *blockingSender) Send(context.Context, email.Message) error {
	s.begun.Store(true)
	<-s.release
	return nil
}
