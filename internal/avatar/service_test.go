package avatar_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"contactsapi/internal/avatar"
	"contactsapi/internal/models"
	"contactsapi/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newUser(t *testing.T, users *testutil.UserStore) *models.User {
	t.Helper()
	u := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h", IsActive: true}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestService_Set(t *testing.T) {
	users := testutil.NewUserStore()
	store := testutil.NewAvatarStore()
	svc := avatar.NewService(store, users, 1024, nil)
	user := newUser(t, users)

	updated, err := svc.Set(context.Background(), user.ID, bytes.NewReader(pngHeader), int64(len(pngHeader)))
	require.NoError(t, err)
	require.NotNil(t, updated.AvatarURL)
	require.Equal(t, store.URL(user.ID), *updated.AvatarURL)
	require.Equal(t, pngHeader, store.Data(user.ID))
}

func TestService_SetRejects(t *testing.T) {
	users := testutil.NewUserStore()
	svc := avatar.NewService(testutil.NewAvatarStore(), users, 16, nil)
	user := newUser(t, users)

	tests := []struct {
		name    string
		data    []byte
		size    int64
		wantErr error
	}{
		{"Too Large", pngHeader, 17, avatar.ErrTooLarge},
		{"Text File", []byte("hello world"), 11, avatar.ErrUnsupportedType},
		{"Empty", nil, 0, avatar.ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Set(context.Background(), user.ID, bytes.NewReader(tt.data), tt.size)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_NotConfigured(t *testing.T) {
	svc := avatar.NewService(nil, testutil.NewUserStore(), 1024, nil)
	_, err := svc.Set(context.Background(), uuid.New(), bytes.NewReader(pngHeader), 10)
	require.ErrorIs(t, err, avatar.ErrNotConfigured)
}

type failingStore struct{}

func (failingStore) Upload(context.Context, uuid.UUID, io.Reader) (string, error) {
	return "", errors.New("down")
}

func (failingStore) Delete(context.Context, uuid.UUID) error {
	return errors.New("down")
}

func TestService_Remove(t *testing.T) {
	users := testutil.NewUserStore()
	user := newUser(t, users)
	url := "https://example.com/a.png"
	_, err := users.UpdateAvatar(context.Background(), user.ID, &url)
	require.NoError(t, err)

	svc := avatar.NewService(failingStore{}, users, 1024, nil)
	updated, err := svc.Remove(context.Background(), user.ID)
	require.NoError(t, err)
	require.Nil(t, updated.AvatarURL)
}
