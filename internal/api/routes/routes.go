// Package routes handles the setup and configuration of API routes
package routes

import (
	"log/slog"

	_ "contactsapi/docs" // Import swagger docs
	"contactsapi/internal/admin"
	"contactsapi/internal/api/handlers"
	"contactsapi/internal/api/middleware"
	"contactsapi/internal/auth"
	"contactsapi/internal/avatar"
	"contactsapi/internal/config"
	"contactsapi/internal/contacts"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies are the services the HTTP layer is built on
type Dependencies struct {
	Config      *config.Config
	Logger      *slog.Logger
	DB          handlers.Pinger
	Tracker     handlers.Tracker
	Auth        *auth.Service
	Admin       *admin.Service
	Avatars     *avatar.Service
	Contacts    *contacts.Service
	RateLimiter *middleware.RateLimiter
}

// SetupRoutes configures all API routes and their handlers
func SetupRoutes(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(middleware.Logger(logger), gin.Recovery())

	// Routes without rate limiting
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware())
	}
	r.Use(middleware.RequestTimeout(deps.Config.API.RequestTimeout))

	authMiddleware := middleware.NewAuthMiddleware(deps.Auth)

	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Tracker)
	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Avatars)
	contactHandler := handlers.NewContactHandler(deps.Contacts)
	cacheHandler := handlers.NewCacheHandler(deps.Tracker)
	adminHandler := handlers.NewAdminHandler(deps.Admin)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Health check (no authentication required)
		v1.GET("/health", healthHandler.Health)

		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/verify-email", authHandler.VerifyEmail)
			authGroup.POST("/resend-verification", authHandler.ResendVerification)
			authGroup.POST("/password-reset", authHandler.RequestPasswordReset)
			authGroup.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)

			// Profile routes (requires authentication)
			profile := authGroup.Group("")
			profile.Use(authMiddleware.AuthRequired())
			{
				profile.GET("/me", authHandler.Me)
				profile.POST("/avatar", authHandler.UploadAvatar)
				profile.DELETE("/avatar", authHandler.DeleteAvatar)
			}
		}

		// Contact routes (requires authentication)
		contactGroup := v1.Group("/contacts")
		contactGroup.Use(authMiddleware.AuthRequired())
		{
			contactGroup.GET("", contactHandler.ListContacts)
			contactGroup.POST("", contactHandler.CreateContact)
			contactGroup.GET("/search", contactHandler.SearchContacts)
			contactGroup.GET("/birthdays", contactHandler.UpcomingBirthdays)
			contactGroup.GET("/:id", contactHandler.GetContact)
			contactGroup.PUT("/:id", contactHandler.UpdateContact)
			contactGroup.DELETE("/:id", contactHandler.DeleteContact)
		}

		// Cache routes (requires authentication)
		cacheGroup := v1.Group("/cache")
		cacheGroup.Use(authMiddleware.AuthRequired())
		{
			cacheGroup.GET("/stats", cacheHandler.Stats)
			cacheGroup.DELETE("/clear", cacheHandler.Clear)
		}

		// Admin routes (requires the admin role)
		adminGroup := v1.Group("/admin")
		adminGroup.Use(authMiddleware.AuthRequired(), middleware.AdminRequired())
		{
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.GET("/users/:id", adminHandler.GetUser)
			adminGroup.PUT("/users/:id/role", adminHandler.UpdateRole)
			adminGroup.PUT("/users/:id/status", adminHandler.UpdateStatus)
			adminGroup.GET("/stats", adminHandler.Stats)
			adminGroup.GET("/audit", adminHandler.AuditLog)
		}
	}

	return r
}
