package postgres_test

import (
	"context"
	"testing"

	"contactsapi/internal/models"
	"contactsapi/internal/repository"
	"contactsapi/internal/repository/postgres"
	"contactsapi/internal/testutil/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestContactRepository(t *testing.T) {
	cfg := db.LoadTestConfig(t)
	conn := db.SetupTestDB(t, &cfg.Database)
	users := postgres.NewUserRepository(conn)
	repo := postgres.NewContactRepository(conn)
	ctx := context.Background()

	owner := createUser(t, users, "alice", "alice@example.com")
	other := createUser(t, users, "eve", "eve@example.com")

	bob := &models.Contact{
		UserID:    owner.ID,
		FirstName: "Bob",
		LastName:  "Builder",
		Email:     "bob@example.com",
		Phone:     "+380501234567",
		Birthday:  models.NewDate(1990, 12, 30),
	}
	require.NoError(t, repo.Create(ctx, bob))
	ann := &models.Contact{
		UserID:    owner.ID,
		FirstName: "Ann",
		LastName:  "Percent%",
		Email:     "ann@example.com",
		Phone:     "+380501234568",
		Birthday:  models.NewDate(1985, 1, 2),
	}
	require.NoError(t, repo.Create(ctx, ann))

	t.Run("Owner Scoped Get", func(t *testing.T) {
		got, err := repo.GetByID(ctx, owner.ID, bob.ID)
		require.NoError(t, err)
		require.Equal(t, "Bob", got.FirstName)
		require.Equal(t, "1990-12-30", got.Birthday.String())

		_, err = repo.GetByID(ctx, other.ID, bob.ID)
		require.ErrorIs(t, err, repository.ErrContactNotFound)
	})

	t.Run("List", func(t *testing.T) {
		got, err := repo.List(ctx, owner.ID, repository.ContactFilter{Offset: 0, Limit: 100})
		require.NoError(t, err)
		require.Len(t, got, 2)

		got, err = repo.List(ctx, other.ID, repository.ContactFilter{Offset: 0, Limit: 100})
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("Search", func(t *testing.T) {
		got, err := repo.Search(ctx, owner.ID, "BUILD")
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, bob.ID, got[0].ID)

		got, err = repo.Search(ctx, owner.ID, "%")
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, ann.ID, got[0].ID)
	})

	t.Run("Birthdays", func(t *testing.T) {
		got, err := repo.ListByBirthdayKeys(ctx, owner.ID, []string{"12-30", "12-31", "01-01", "01-02"})
		require.NoError(t, err)
		require.Len(t, got, 2)

		got, err = repo.ListByBirthdayKeys(ctx, owner.ID, nil)
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("Update", func(t *testing.T) {
		bob.Phone = "+380509999999"
		require.NoError(t, repo.Update(ctx, bob))

		got, err := repo.GetByID(ctx, owner.ID, bob.ID)
		require.NoError(t, err)
		require.Equal(t, "+380509999999", got.Phone)

		stranger := *bob
		stranger.UserID = other.ID
		require.ErrorIs(t, repo.Update(ctx, &stranger), repository.ErrContactNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.ErrorIs(t, repo.Delete(ctx, other.ID, bob.ID), repository.ErrContactNotFound)
		require.NoError(t, repo.Delete(ctx, owner.ID, bob.ID))
		require.ErrorIs(t, repo.Delete(ctx, owner.ID, bob.ID), repository.ErrContactNotFound)
		require.ErrorIs(t, repo.Delete(ctx, owner.ID, uuid.New()), repository.ErrContactNotFound)
	})
}
