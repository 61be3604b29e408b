package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"contactsapi/internal/admin"
	"contactsapi/internal/api/middleware"
	"contactsapi/internal/api/routes"
	"contactsapi/internal/attempt"
	"contactsapi/internal/auth"
	"contactsapi/internal/avatar"
	"contactsapi/internal/config"
	"contactsapi/internal/contacts"
	"contactsapi/internal/database"
	"contactsapi/internal/email"
	"contactsapi/internal/repository/postgres"
	"contactsapi/internal/scheduler"
	"contactsapi/internal/token"
	"contactsapi/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"
)

func runServer(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		return err
	}

	tracker := newTracker(cfg.Redis, logger)

	tokens, err := token.NewService(cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}

	mailQueue := email.NewQueue(newMailer(cfg.Email, logger), cfg.Email.QueueSize, logger)
	defer mailQueue.Close()

	users := postgres.NewUserRepository(db)

	authService, err := auth.NewService(cfg, users, tokens, tracker, mailQueue, auth.WithLogger(logger))
	if err != nil {
		return err
	}

	avatarStore, err := newAvatarStore(cfg.Cloudinary, logger)
	if err != nil {
		return err
	}

	validation.Initialize()
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	rateLimiter := middleware.NewRateLimiter(cfg)
	go rateLimiter.Run(ctx)

	router := routes.SetupRoutes(routes.Dependencies{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		Tracker:     tracker,
		Auth:        authService,
		Admin:       admin.NewService(postgres.NewAdminRepository(db), users, tracker, logger),
		Avatars:     avatar.NewService(avatarStore, users, cfg.Cloudinary.MaxFileSize, logger),
		Contacts:    contacts.NewService(postgres.NewContactRepository(db)),
		RateLimiter: rateLimiter,
	})

	jobs := scheduler.NewManager(logger)
	jobs.Register(&scheduler.ResetTokenCleanup{Users: users, Logger: logger}, cfg.Scheduler.CleanupSchedule)
	jobs.Register(&scheduler.AttemptPrune{Tracker: tracker}, cfg.Scheduler.CleanupSchedule)

	schedulerErr := make(chan error, 1)
	go func() {
		schedulerErr <- jobs.Start(ctx)
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.API.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "attempt_store", tracker.Mode())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		stop()
		return fmt.Errorf("server failed: %w", err)
	case err := <-schedulerErr:
		if err != nil {
			stop()
			return err
		}
		<-ctx.Done()
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exiting")
	return nil
}

// newTracker connects to redis when enabled. Without a reachable redis the
// tracker runs on its in-process store for the lifetime of the process.
func newTracker(cfg config.RedisConfig, logger *slog.Logger) *attempt.Tracker {
	if !cfg.Enabled {
		logger.Info("redis disabled, attempt tracking is in-process")
		return attempt.NewTracker(nil, logger)
	}

	client, err := database.ConnectRedis(cfg)
	if err != nil {
		logger.Warn("redis unavailable, attempt tracking is in-process", "error", err)
		return attempt.NewTracker(nil, logger)
	}
	return attempt.NewTracker(attempt.NewRedisStore(client), logger)
}

func newMailer(cfg config.EmailConfig, logger *slog.Logger) email.Sender {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, emails will be logged instead of sent")
		return email.LogSender{Logger: logger}
	}

	svc, err := email.NewService(cfg)
	if err != nil {
		logger.Error("invalid email configuration, emails will be logged instead of sent", "error", err)
		return email.LogSender{Logger: logger}
	}
	return svc
}

func newAvatarStore(cfg config.CloudinaryConfig, logger *slog.Logger) (avatar.Store, error) {
	if cfg.CloudName == "" {
		logger.Warn("cloudinary not configured, avatar uploads are disabled")
		return nil, nil
	}

	store, err := avatar.NewCloudinaryStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure cloudinary: %w", err)
	}
	return store, nil
}
