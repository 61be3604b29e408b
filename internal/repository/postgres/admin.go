package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"contactsapi/internal/models"
	"contactsapi/internal/repository"

	"github.com/google/uuid"
)

type adminRepository struct {
	repository.BaseRepository
}

// NewAdminRepository creates a new PostgreSQL admin repository
func NewAdminRepository(db *sql.DB) repository.AdminRepository {
	return &adminRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

// userWhere builds the WHERE clause shared by the page and count queries
func userWhere(filter repository.UserFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.Role != "" {
		args = append(args, filter.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		conds = append(conds, fmt.Sprintf("(username ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *adminRepository) ListUsers(ctx context.Context, filter repository.UserFilter) ([]models.User, int, error) {
	where, args := userWhere(filter)

	var total int
	if err := r.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err, repository.ErrNotFound)
	}

	query := `SELECT ` + userColumns + ` FROM users` + where +
		fmt.Sprintf(` ORDER BY username LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := r.DB().QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, mapError(err, repository.ErrNotFound)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, mapError(err, repository.ErrNotFound)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, repository.ErrNotFound)
	}
	return users, total, nil
}

func (r *adminRepository) CountByRole(ctx context.Context) (map[models.Role]int, error) {
	rows, err := r.DB().QueryContext(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, mapError(err, repository.ErrNotFound)
	}
	defer rows.Close()

	counts := make(map[models.Role]int, len(models.Roles))
	for rows.Next() {
		var (
			role models.Role
			n    int
		)
		if err := rows.Scan(&role, &n); err != nil {
			return nil, mapError(err, repository.ErrNotFound)
		}
		counts[role] = n
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, repository.ErrNotFound)
	}
	return counts, nil
}

// updateAudited runs update, which must return the changed row, and inserts
// the audit entry in the same transaction
func (r *adminRepository) updateAudited(ctx context.Context, id uuid.UUID, change repository.AuditChange, update string, args ...any) (*models.User, error) {
	var user *models.User
	err := r.Transaction(ctx, func(tx *sql.Tx) error {
		var err error
		user, err = scanUser(tx.QueryRowContext(ctx, update, args...))
		if err != nil {
			return mapError(err, repository.ErrUserNotFound)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO admin_audit_log (id, admin_id, action, target_user_id, details)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(),
			uuid.NullUUID{UUID: change.AdminID, Valid: change.AdminID != uuid.Nil},
			change.Action,
			id,
			change.Details,
		)
		return mapError(err, repository.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *adminRepository) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role, change repository.AuditChange) (*models.User, error) {
	query := `
		UPDATE users SET role = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING ` + userColumns
	return r.updateAudited(ctx, id, change, query, id, role)
}

func (r *adminRepository) UpdateStatus(ctx context.Context, id uuid.UUID, active bool, change repository.AuditChange) (*models.User, error) {
	query := `
		UPDATE users SET is_active = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING ` + userColumns
	return r.updateAudited(ctx, id, change, query, id, active)
}

func (r *adminRepository) ListAudit(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	query := `
		SELECT id, admin_id, action, target_user_id, details, created_at
		FROM admin_audit_log
		ORDER BY created_at DESC
		LIMIT $1`
	rows, err := r.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, mapError(err, repository.ErrNotFound)
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var (
			e     models.AuditEntry
			admin uuid.NullUUID
		)
		if err := rows.Scan(&e.ID, &admin, &e.Action, &e.TargetUserID, &e.Details, &e.CreatedAt); err != nil {
			return nil, mapError(err, repository.ErrNotFound)
		}
		if admin.Valid {
			e.AdminID = &admin.UUID
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, repository.ErrNotFound)
	}
	return entries, nil
}
