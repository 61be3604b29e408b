package db

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"contactsapi/internal/config"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

// ProjectRoot returns the absolute path of the module root
func ProjectRoot(t *testing.T) string {
	t.Helper()

	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	// Project root is 3 levels up from this file
	root, err := filepath.Abs(filepath.Join(filepath.Dir(filename), "..", "..", ".."))
	require.NoError(t, err, "Failed to get absolute project root path")
	return root
}

// LoadTestConfig loads .env.test when present and returns the resulting config
func LoadTestConfig(t *testing.T) *config.Config {
	t.Helper()

	root := ProjectRoot(t)
	envFile := filepath.Join(root, ".env.test")
	if _, err := os.Stat(envFile); err == nil {
		require.NoError(t, godotenv.Load(envFile), "Failed to load .env.test file")
	}

	if os.Getenv("JWT_SECRET") == "" {
		t.Setenv("JWT_SECRET", "test-secret")
	}

	cfg := &config.Config{}
	require.NoError(t, cfg.LoadFromEnv(), "Failed to load config")

	// Only override migrations path to ensure it's absolute
	cfg.Database.MigrationsPath = filepath.Join(root, "migrations")

	return cfg
}
