package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
)

// AvatarStore is an in-memory avatar.Store
type AvatarStore struct {
	mu    sync.Mutex
	files map[uuid.UUID][]byte
}

// NewAvatarStore creates an empty store
func NewAvatarStore() *AvatarStore {
	return &AvatarStore{files: make(map[uuid.UUID][]byte)}
}

func (s *AvatarStore) Upload(_ context.Context, userID uuid.UUID, file io.Reader) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[userID] = data
	return s.URL(userID), nil
}

func (s *AvatarStore) Delete(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, userID)
	return nil
}

// URL is the address Upload returns for userID
func (s *AvatarStore) URL(userID uuid.UUID) string {
	return "https://images.example.com/avatars/user_" + userID.String()
}

// Data returns the stored bytes for userID
func (s *AvatarStore) Data(userID uuid.UUID) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[userID]
}
