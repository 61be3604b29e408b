package testutil

import (
	"context"
	"sort"
	"strings"

	"contactsapi/internal/models"
	"contactsapi/internal/repository"

	"github.com/google/uuid"
)

func (s *UserStore) ListUsers(_ context.Context, filter repository.UserFilter) ([]models.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := []models.User{}
	for _, u := range s.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Username), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })

	total := len(matched)
	start := min(filter.Offset, total)
	end := min(start+filter.Limit, total)
	return matched[start:end], total, nil
}

func (s *UserStore) CountByRole(_ context.Context) (map[models.Role]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	counts := make(map[models.Role]int)
	for _, u := range s.users {
		counts[u.Role]++
	}
	return counts, nil
}

// updateAudited applies fn and appends the audit entry under one lock
func (s *UserStore) updateAudited(id uuid.UUID, change repository.AuditChange, fn func(u *models.User)) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	fn(&u)
	u.UpdatedAt = s.Now()
	s.users[id] = u

	entry := models.AuditEntry{
		ID:           uuid.New(),
		Action:       change.Action,
		TargetUserID: id,
		Details:      change.Details,
		CreatedAt:    s.Now(),
	}
	if change.AdminID != uuid.Nil {
		admin := change.AdminID
		entry.AdminID = &admin
	}
	s.audit = append(s.audit, entry)
	return &u, nil
}

func (s *UserStore) UpdateRole(_ context.Context, id uuid.UUID, role models.Role, change repository.AuditChange) (*models.User, error) {
	return s.updateAudited(id, change, func(u *models.User) { u.Role = role })
}

func (s *UserStore) UpdateStatus(_ context.Context, id uuid.UUID, active bool, change repository.AuditChange) (*models.User, error) {
	return s.updateAudited(id, change, func(u *models.User) { u.IsActive = active })
}

func (s *UserStore) ListAudit(_ context.Context, limit int) ([]models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	entries := make([]models.AuditEntry, 0, min(limit, len(s.audit)))
	for i := len(s.audit) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, s.audit[i])
	}
	return entries, nil
}
