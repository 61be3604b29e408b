package postgres_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"

	"contactsapi/internal/models"
	"contactsapi/internal/repository"
	"contactsapi/internal/repository/postgres"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// failingDriver fails every statement with the error registered for the DSN
type failingDriver struct{}

var (
	registerFailing sync.Once
	failures        sync.Map
)

func (failingDriver) Open(dsn string) (driver.Conn, error) {
	err, _ := failures.Load(dsn)
	return failingConn{err: err.(error)}, nil
}

type failingConn struct{ err error }

func (c failingConn) Prepare(string) (driver.Stmt, error) { return failingStmt(c), nil }
func (failingConn) Close() error { return nil }
func (failingConn) Begin() (driver.Tx, error) { return nil, errors.New("not supported") }

type failingStmt struct{ err error }

func (failingStmt) Close() error { return nil }
func (failingStmt) NumInput() int { return -1 }
func (s failingStmt) Exec([]driver.Value) (driver.Result, error) { return nil, s.err }
func (s failingStmt) Query([]driver.Value) (driver.Rows, error) { return nil, s.err }

func openFailing(t *testing.T, err error) *sql.DB {
	t.Helper()
	registerFailing.Do(func() { sql.Register("failing", failingDriver{}) })

	dsn := uuid.NewString()
	failures.Store(dsn, err)

	conn, openErr := sql.Open("failing", dsn)
	require.NoError(t, openErr)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestUserRepository_DriverErrors(t *testing.T) {
	uniqueViolation := &pq.Error{Code: "23505", Constraint: "users_email_key"}
	refused := errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

	newUser := func() *models.User {
		return &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash", IsActive: true}
	}

	tests := []struct {
		name      string
		driverErr error
		run       func(repo repository.UserRepository) error
		is        []error
		isNot     []error
	}{
		{
			name:      "Create Unique Violation Is Conflict",
			driverErr: uniqueViolation,
			run:       func(repo repository.UserRepository) error { return repo.Create(context.Background(), newUser()) },
			is:        []error{repository.ErrUserExists, repository.ErrConflict},
			isNot:     []error{repository.ErrUnavailable},
		},
		{
			name:      "Create Connection Failure Is Unavailable",
			driverErr: refused,
			run:       func(repo repository.UserRepository) error { return repo.Create(context.Background(), newUser()) },
			is:        []error{repository.ErrUnavailable},
			isNot:     []error{repository.ErrConflict, repository.ErrUserExists},
		},
		{
			name:      "Update Connection Failure Is Unavailable",
			driverErr: refused,
			run: func(repo repository.UserRepository) error {
				return repo.SetResetToken(context.Background(), uuid.New(), "token", time.Now().Add(time.Hour))
			},
			is:    []error{repository.ErrUnavailable},
			isNot: []error{repository.ErrUserNotFound},
		},
		{
			name:      "Lookup Connection Failure Is Unavailable",
			driverErr: refused,
			run: func(repo repository.UserRepository) error {
				_, err := repo.GetByEmail(context.Background(), "alice@example.com")
				return err
			},
			is:    []error{repository.ErrUnavailable},
			isNot: []error{repository.ErrUserNotFound},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := postgres.NewUserRepository(openFailing(t, tt.driverErr))

			err := tt.run(repo)
			require.Error(t, err)
			for _, target := range tt.is {
				require.ErrorIs(t, err, target)
			}
			for _, target := range tt.isNot {
				require.NotErrorIs(t, err, target)
			}
		})
	}
}
