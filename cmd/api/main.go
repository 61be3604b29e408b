// Package main provides the entry point for the Contacts API server
// @title           Contacts API
// @version         1.0
// @description     Contacts API server with per-user address books and token based authentication.
//
// @description.markdown
// All API endpoints are subject to a global per-IP rate limit. Login, registration,
// password reset and email verification have additional per-operation attempt limits.
//
// When a limit is exceeded:
// * Status code 429 (Too Many Requests) is returned
// * Headers:
//   - Retry-After: Seconds to wait before retrying
//
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token authentication
//
// @response 429 {object} models.ErrorResponse "Rate limit exceeded"
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"contactsapi/internal/admin"
	"contactsapi/internal/attempt"
	"contactsapi/internal/config"
	"contactsapi/internal/database"
	"contactsapi/internal/logging"
	"contactsapi/internal/models"
	"contactsapi/internal/repository/postgres"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

// Version information (set via ldflags during build)
var Version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    "contactsapi",
		Usage:   "Contacts API server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Value: ".env",
				Usage: "Path to env file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run migrations and start the HTTP server",
				Action: runServer,
			},
			{
				Name:   "migrate",
				Usage:  "Apply pending database migrations and exit",
				Action: runMigrate,
			},
			{
				Name:      "set-role",
				Usage:     "Grant a role to an existing user",
				ArgsUsage: "<username>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "role",
						Value: string(models.RoleAdmin),
						Usage: "One of user, moderator, admin",
					},
				},
				Action: runSetRole,
			},
		},
		Action: runServer,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the env file, builds the configuration and installs the logger
func loadConfig(cmd *cli.Command) (*config.Config, *slog.Logger, error) {
	envFile := cmd.String("env")
	envErr := godotenv.Load(envFile)

	cfg := &config.Config{}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if envErr != nil {
		logger.Warn("env file not loaded", "path", envFile, "error", envErr)
	}
	return cfg, logger, nil
}

func runMigrate(_ context.Context, cmd *cli.Command) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := database.RunMigrations(cfg.Database); err != nil {
		return err
	}
	logger.Info("migrations applied", "path", cfg.Database.MigrationsPath)
	return nil
}

// runSetRole changes a user's role from the command line. It is how the first
// administrator gets created.
func runSetRole(ctx context.Context, cmd *cli.Command) error {
	username := cmd.Args().First()
	if username == "" {
		return errors.New("username is required")
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		return err
	}

	svc := admin.NewService(postgres.NewAdminRepository(db), postgres.NewUserRepository(db),
		attempt.NewTracker(nil, logger), logger)
	user, err := svc.SetRoleByUsername(ctx, username, models.Role(cmd.String("role")))
	if err != nil {
		return err
	}
	logger.Info("role updated", "username", user.Username, "role", user.Role)
	return nil
}
