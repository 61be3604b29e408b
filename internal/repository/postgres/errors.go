package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"contactsapi/internal/repository"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// mapError translates driver errors into the repository vocabulary. notFound is
// returned for sql.ErrNoRows; anything unrecognised becomes ErrUnavailable.
func mapError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrConflict, pqErr.Constraint)
	}

	return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
}

func isConflict(err error) bool {
	return errors.Is(err, repository.ErrConflict)
}
