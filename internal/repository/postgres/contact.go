package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"contactsapi/internal/models"
	"contactsapi/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const contactColumns = `
	id, user_id, first_name, last_name, email, phone, birthday,
	additional_info, created_at, updated_at`

type contactRepository struct {
	repository.BaseRepository
}

// NewContactRepository creates a new PostgreSQL contact repository
func NewContactRepository(db *sql.DB) repository.ContactRepository {
	return &contactRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func scanContact(row interface{ Scan(...any) error }) (*models.Contact, error) {
	c := &models.Contact{}
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Birthday,
		&c.AdditionalInfo,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *contactRepository) queryContacts(ctx context.Context, query string, args ...any) ([]models.Contact, error) {
	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, repository.ErrContactNotFound)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, mapError(err, repository.ErrContactNotFound)
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, repository.ErrContactNotFound)
	}
	return contacts, nil
}

func (r *contactRepository) Create(ctx context.Context, contact *models.Contact) error {
	query := `
		INSERT INTO contacts (
			id, user_id, first_name, last_name, email, phone, birthday,
			additional_info, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING created_at, updated_at`

	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}

	err := r.DB().QueryRowContext(ctx, query,
		contact.ID,
		contact.UserID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.AdditionalInfo,
		time.Now().UTC(),
	).Scan(&contact.CreatedAt, &contact.UpdatedAt)

	return mapError(err, repository.ErrContactNotFound)
}

func (r *contactRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND user_id = $2`

	c, err := scanContact(r.DB().QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, mapError(err, repository.ErrContactNotFound)
	}
	return c, nil
}

func (r *contactRepository) Update(ctx context.Context, contact *models.Contact) error {
	query := `
		UPDATE contacts
		SET first_name = $3,
			last_name = $4,
			email = $5,
			phone = $6,
			birthday = $7,
			additional_info = $8,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`

	err := r.DB().QueryRowContext(ctx, query,
		contact.ID,
		contact.UserID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.AdditionalInfo,
	).Scan(&contact.UpdatedAt)

	return mapError(err, repository.ErrContactNotFound)
}

func (r *contactRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.DB().ExecContext(ctx, `DELETE FROM contacts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapError(err, repository.ErrContactNotFound)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return mapError(err, repository.ErrContactNotFound)
	}
	if rows == 0 {
		return repository.ErrContactNotFound
	}
	return nil
}

func (r *contactRepository) List(ctx context.Context, userID uuid.UUID, filter repository.ContactFilter) ([]models.Contact, error) {
	query := `SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1
		ORDER BY last_name, first_name, id
		OFFSET $2 LIMIT $3`
	return r.queryContacts(ctx, query, userID, filter.Offset, filter.Limit)
}

func (r *contactRepository) Search(ctx context.Context, userID uuid.UUID, query string) ([]models.Contact, error) {
	pattern := "%" + escapeLike(query) + "%"
	q := `SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1
		AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)
		ORDER BY last_name, first_name, id`
	return r.queryContacts(ctx, q, userID, pattern)
}

func (r *contactRepository) ListByBirthdayKeys(ctx context.Context, userID uuid.UUID, keys []string) ([]models.Contact, error) {
	if len(keys) == 0 {
		return []models.Contact{}, nil
	}
	query := `SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1
		AND to_char(birthday, 'MM-DD') = ANY($2)
		ORDER BY to_char(birthday, 'MM-DD'), last_name, first_name`
	return r.queryContacts(ctx, query, userID, pq.Array(keys))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside an ILIKE pattern
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
