package postgres_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"contactsapi/internal/models"
	"contactsapi/internal/repository"
	"contactsapi/internal/repository/postgres"
	"contactsapi/internal/testutil/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newUserRepo(t *testing.T) repository.UserRepository {
	t.Helper()
	cfg := db.LoadTestConfig(t)
	return postgres.NewUserRepository(db.SetupTestDB(t, &cfg.Database))
}

func createUser(t *testing.T, repo repository.UserRepository, username, email string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		IsActive:     true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestUserRepository_Create(t *testing.T) {
	repo := newUserRepo(t)
	createUser(t, repo, "alice", "alice@example.com")

	tests := []struct {
		name     string
		username string
		email    string
		wantErr  error
	}{
		{name: "Success", username: "bob", email: "bob@example.com"},
		{name: "Duplicate Username", username: "alice", email: "other@example.com", wantErr: repository.ErrUserExists},
		{name: "Duplicate Email", username: "carol", email: "alice@example.com", wantErr: repository.ErrUserExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &models.User{Username: tt.username, Email: tt.email, PasswordHash: "hash", IsActive: true}
			err := repo.Create(context.Background(), user)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, repository.ErrConflict)
				return
			}
			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, user.ID)
			require.False(t, user.CreatedAt.IsZero())
			require.Equal(t, models.RoleUser, user.Role)
		})
	}
}

func TestUserRepository_Lookups(t *testing.T) {
	repo := newUserRepo(t)
	alice := createUser(t, repo, "alice", "alice@example.com")
	ctx := context.Background()

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)

	got, err = repo.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)

	got, err = repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	_, err = repo.GetByUsername(ctx, "nobody")
	require.ErrorIs(t, err, repository.ErrUserNotFound)

	_, err = repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_ResetToken(t *testing.T) {
	repo := newUserRepo(t)
	alice := createUser(t, repo, "alice", "alice@example.com")
	ctx := context.Background()

	t.Run("Set And Find", func(t *testing.T) {
		require.NoError(t, repo.SetResetToken(ctx, alice.ID, "tok-1", time.Now().Add(time.Hour)))

		got, err := repo.GetByResetToken(ctx, "tok-1")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)
		require.True(t, got.HasResetToken("tok-1", time.Now()))
	})

	t.Run("Expired Token Is Not Found", func(t *testing.T) {
		require.NoError(t, repo.SetResetToken(ctx, alice.ID, "tok-old", time.Now().Add(-time.Minute)))

		_, err := repo.GetByResetToken(ctx, "tok-old")
		require.ErrorIs(t, err, repository.ErrUserNotFound)
	})

	t.Run("Clear Removes Both Columns", func(t *testing.T) {
		require.NoError(t, repo.SetResetToken(ctx, alice.ID, "tok-2", time.Now().Add(time.Hour)))
		require.NoError(t, repo.ClearResetToken(ctx, alice.ID))

		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Nil(t, got.ResetToken)
		require.Nil(t, got.ResetTokenExpiresAt)
	})

	t.Run("Clear Expired", func(t *testing.T) {
		require.NoError(t, repo.SetResetToken(ctx, alice.ID, "tok-3", time.Now().Add(-time.Minute)))

		n, err := repo.ClearExpiredResetTokens(ctx, time.Now())
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
	})

	t.Run("Inactive Or Missing User Matches Nothing", func(t *testing.T) {
		ivan := &models.User{Username: "ivan", Email: "ivan@example.com", PasswordHash: "hash"}
		require.NoError(t, repo.Create(ctx, ivan))

		err := repo.SetResetToken(ctx, ivan.ID, "tok-4", time.Now().Add(time.Hour))
		require.ErrorIs(t, err, repository.ErrUserNotFound)
		err = repo.SetResetToken(ctx, uuid.New(), "tok-5", time.Now().Add(time.Hour))
		require.ErrorIs(t, err, repository.ErrUserNotFound)

		got, err := repo.GetByID(ctx, ivan.ID)
		require.NoError(t, err)
		require.Nil(t, got.ResetToken)
	})
}

func TestUserRepository_ConsumeResetToken(t *testing.T) {
	repo := newUserRepo(t)
	alice := createUser(t, repo, "alice", "alice@example.com")
	ctx := context.Background()

	require.NoError(t, repo.SetResetToken(ctx, alice.ID, "tok", time.Now().Add(time.Hour)))

	err := repo.ConsumeResetToken(ctx, alice.ID, "wrong", "new-hash")
	require.ErrorIs(t, err, repository.ErrResetTokenInvalid)

	const workers = 8
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if repo.ConsumeResetToken(ctx, alice.ID, "tok", "new-hash") == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())

	got, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
	require.Nil(t, got.ResetToken)
	require.Nil(t, got.ResetTokenExpiresAt)
}

func TestUserRepository_Verification(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	user := &models.User{Username: "dave", Email: "dave@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	require.NoError(t, repo.SetVerificationToken(ctx, user.ID, "verify"))

	require.ErrorIs(t, repo.MarkVerified(ctx, user.ID, "nope"), repository.ErrTokenInvalid)
	require.NoError(t, repo.MarkVerified(ctx, user.ID, "verify"))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, got.IsVerified)
	require.True(t, got.IsActive)
	require.Nil(t, got.VerificationToken)
	err = repo.SetVerificationToken(ctx, user.ID, "again")
	require.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_UpdateAvatarAndPassword(t *testing.T) {
	repo := newUserRepo(t)
	alice := createUser(t, repo, "alice", "alice@example.com")
	ctx := context.Background()

	url := "https://res.cloudinary.com/demo/avatars/user_1.png"
	got, err := repo.UpdateAvatar(ctx, alice.ID, &url)
	require.NoError(t, err)
	require.Equal(t, url, *got.AvatarURL)

	got, err = repo.UpdateAvatar(ctx, alice.ID, nil)
	require.NoError(t, err)
	require.Nil(t, got.AvatarURL)

	require.NoError(t, repo.UpdatePassword(ctx, alice.ID, "h2"))
	require.ErrorIs(t, repo.UpdatePassword(ctx, uuid.New(), "h2"), repository.ErrUserNotFound)
}
