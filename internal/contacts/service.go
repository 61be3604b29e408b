// Package contacts implements the per-user address book
package contacts

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"contactsapi/internal/models"
	"contactsapi/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultLimit        = 100
	MaxLimit            = 100
	DefaultBirthdayDays = 7
	MaxBirthdayDays     = 365
)

var (
	ErrInvalidPagination = errors.New("skip must be >= 0 and limit between 1 and 100")
	ErrInvalidDays       = errors.New("days must be between 0 and 365")
	ErrEmptyQuery        = errors.New("search query is required")
	ErrMissingBirthday   = errors.New("birthday is required")
)

// Service manages contacts on behalf of their owners
type Service struct {
	repo repository.ContactRepository
	now  func() time.Time
}

// NewService creates a contact service
func NewService(repo repository.ContactRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetClock replaces time.Now, for tests
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, skip, limit int) ([]models.Contact, error) {
	if skip < 0 || limit < 1 || limit > MaxLimit {
		return nil, ErrInvalidPagination
	}
	return s.repo.List(ctx, userID, repository.ContactFilter{Offset: skip, Limit: limit})
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*models.Contact, error) {
	return s.repo.GetByID(ctx, userID, id)
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, req models.CreateContactRequest) (*models.Contact, error) {
	if req.Birthday.IsZero() {
		return nil, ErrMissingBirthday
	}
	contact := &models.Contact{
		UserID:         userID,
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          strings.TrimSpace(req.Email),
		Phone:          strings.TrimSpace(req.Phone),
		Birthday:       req.Birthday,
		AdditionalInfo: req.AdditionalInfo,
	}
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, req models.UpdateContactRequest) (*models.Contact, error) {
	contact, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	req.Apply(contact)
	if err := s.repo.Update(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}

// Search matches query case-insensitively against first name, last name and email
func (s *Service) Search(ctx context.Context, userID uuid.UUID, query string) ([]models.Contact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	return s.repo.Search(ctx, userID, query)
}

// UpcomingBirthdays returns contacts whose birthday falls within the next
// days days, today included, ordered by how soon the birthday comes.
func (s *Service) UpcomingBirthdays(ctx context.Context, userID uuid.UUID, days int) ([]models.Contact, error) {
	if days < 0 || days > MaxBirthdayDays {
		return nil, ErrInvalidDays
	}

	keys := models.UpcomingBirthdayKeys(s.now(), days)
	found, err := s.repo.ListByBirthdayKeys(ctx, userID, keys)
	if err != nil {
		return nil, err
	}

	order := make(map[string]int, len(keys))
	for i, k := range keys {
		order[k] = i
	}
	sort.SliceStable(found, func(i, j int) bool {
		return order[found[i].Birthday.MonthDay()] < order[found[j].Birthday.MonthDay()]
	})
	return found, nil
}
