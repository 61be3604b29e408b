package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"contactsapi/internal/models"
	"contactsapi/internal/repository"

	"github.com/google/uuid"
)

// ContactStore is an in-memory repository.ContactRepository
type ContactStore struct {
	mu       sync.Mutex
	contacts map[uuid.UUID]models.Contact
}

// NewContactStore creates an empty store
func NewContactStore() *ContactStore {
	return &ContactStore{contacts: make(map[uuid.UUID]models.Contact)}
}

func (s *ContactStore) Create(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	contact.CreatedAt = time.Now()
	contact.UpdatedAt = contact.CreatedAt
	s.contacts[contact.ID] = *contact
	return nil
}

func (s *ContactStore) GetByID(_ context.Context, userID, id uuid.UUID) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[id]
	if !ok || c.UserID != userID {
		return nil, repository.ErrContactNotFound
	}
	return &c, nil
}

func (s *ContactStore) Update(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[contact.ID]
	if !ok || c.UserID != contact.UserID {
		return repository.ErrContactNotFound
	}
	contact.CreatedAt = c.CreatedAt
	contact.UpdatedAt = time.Now()
	s.contacts[contact.ID] = *contact
	return nil
}

func (s *ContactStore) Delete(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[id]
	if !ok || c.UserID != userID {
		return repository.ErrContactNotFound
	}
	delete(s.contacts, id)
	return nil
}

func (s *ContactStore) filter(userID uuid.UUID, match func(c *models.Contact) bool) []models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Contact{}
	for _, c := range s.contacts {
		if c.UserID == userID && match(&c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (s *ContactStore) List(_ context.Context, userID uuid.UUID, f repository.ContactFilter) ([]models.Contact, error) {
	all := s.filter(userID, func(*models.Contact) bool { return true })
	if f.Offset >= len(all) {
		return []models.Contact{}, nil
	}
	end := f.Offset + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[f.Offset:end], nil
}

func (s *ContactStore) Search(_ context.Context, userID uuid.UUID, query string) ([]models.Contact, error) {
	q := strings.ToLower(query)
	return s.filter(userID, func(c *models.Contact) bool {
		return strings.Contains(strings.ToLower(c.FirstName), q) ||
			strings.Contains(strings.ToLower(c.LastName), q) ||
			strings.Contains(strings.ToLower(c.Email), q)
	}), nil
}

func (s *ContactStore) ListByBirthdayKeys(_ context.Context, userID uuid.UUID, keys []string) ([]models.Contact, error) {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return s.filter(userID, func(c *models.Contact) bool {
		_, ok := set[c.Birthday.MonthDay()]
		return ok
	}), nil
}
