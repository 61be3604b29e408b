package repository

import (
	"context"

	"contactsapi/internal/models"

	"github.com/google/uuid"
)

// ContactRepository defines the per-owner contact operations. Every method is
// scoped to userID; contacts of other users behave as if they did not exist.
type ContactRepository interface {
	Create(ctx context.Context, contact *models.Contact) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Contact, error)
	Update(ctx context.Context, contact *models.Contact) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, filter ContactFilter) ([]models.Contact, error)
	Search(ctx context.Context, userID uuid.UUID, query string) ([]models.Contact, error)
	// ListByBirthdayKeys returns contacts whose birthday MM-DD is in keys
	ListByBirthdayKeys(ctx context.Context, userID uuid.UUID, keys []string) ([]models.Contact, error)
}

// ContactFilter defines pagination for listing contacts
type ContactFilter struct {
	Offset int
	Limit  int
}
