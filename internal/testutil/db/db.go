// Package db provides database utilities for testing
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"contactsapi/internal/config"
	"contactsapi/internal/database"

	"github.com/stretchr/testify/require"
)

// CleanupTestDB drops all tables in the test database
func CleanupTestDB(db *sql.DB) error {
	rows, err := db.Query(`
		SELECT tablename
		FROM pg_tables
		WHERE schemaname = 'public'
	`)
	if err != nil {
		return fmt.Errorf("failed to get table names: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating over table names: %w", err)
	}

	if len(tables) == 0 {
		return nil
	}

	dropQuery := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", strings.Join(tables, ", "))
	if _, err := db.Exec(dropQuery); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	return nil
}

// SetupTestDB connects to the test database, recreates the schema and returns
// the connection. The test is skipped when the database cannot be reached.
func SetupTestDB(t *testing.T, cfg *config.DatabaseConfig) *sql.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	db, err := database.Connect(*cfg)
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}

	require.NoError(t, CleanupTestDB(db), "Failed to cleanup test database")

	require.NoError(t, database.RunMigrations(*cfg), "Failed to run migrations")

	t.Cleanup(func() {
		_ = CleanupTestDB(db)
		db.Close()
	})

	return db
}
