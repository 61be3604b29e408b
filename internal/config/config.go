package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// API contains API server configuration
	API APIConfig
	// Auth contains authentication configuration
	Auth AuthConfig
	// Database contains database configuration
	Database DatabaseConfig
	// Redis contains cache configuration for the attempt tracker
	Redis RedisConfig
	// Email contains email service configuration
	Email EmailConfig
	// Cloudinary contains avatar storage configuration
	Cloudinary CloudinaryConfig
	// Log contains logging configuration
	Log LogConfig
	// RateLimit contains global and per-operation limits
	RateLimit RateLimitConfig
	// Scheduler contains housekeeping job configuration
	Scheduler SchedulerConfig
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname
	Host string
	// Port is the database server port
	Port int
	// User is the database username
	User string
	// Password is the database password
	Password string
	// DBName is the database name
	DBName string
	// SSLMode is the SSL mode for the database connection
	SSLMode string
	// MigrationsPath is the path to database migrations
	MigrationsPath string
}

// RedisConfig contains redis connection settings
type RedisConfig struct {
	// Enabled turns the redis backend on; when false the attempt tracker runs in-process only
	Enabled bool
	// URL is a redis:// connection URL
	URL string
	// DialTimeout bounds connection establishment
	DialTimeout time.Duration
	// OperationTimeout bounds reads and writes
	OperationTimeout time.Duration
}

// APIConfig contains API server settings
type APIConfig struct {
	// Port is the server port to listen on
	Port string
	// RequestTimeout bounds every storage and cache call made on behalf of a request
	RequestTimeout time.Duration
	// ShutdownTimeout is how long in-flight requests get on shutdown
	ShutdownTimeout time.Duration
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	// JWTSecret is the secret key used to sign all tokens
	JWTSecret string
	// SessionTokenTTL is the lifetime of session tokens
	SessionTokenTTL time.Duration
	// ResetTokenTTL is the lifetime of password reset tokens
	ResetTokenTTL time.Duration
	// VerificationTokenTTL is the lifetime of email verification tokens
	VerificationTokenTTL time.Duration
	// RequireEmailVerification registers accounts inactive until the email is verified
	RequireEmailVerification bool
	// RegistrationOpen determines if new user registration is allowed
	RegistrationOpen bool
}

// Limit is a number of attempts allowed per window
type Limit struct {
	Max    int
	Window time.Duration
}

// RateLimitConfig contains the global limiter and the per-operation attempt limits
type RateLimitConfig struct {
	// Requests allowed per Window by the global per-IP limiter
	Requests int
	// Window of the global limiter in seconds
	Window int
	// Burst is the maximum burst size of the global limiter
	Burst int

	Login         Limit
	Register      Limit
	ResetPerEmail Limit
	ResetPerIP    Limit
	ResetConfirm  Limit
	Verification  Limit
}

// EmailConfig contains email service settings
type EmailConfig struct {
	// SMTPHost is the SMTP server hostname
	SMTPHost string
	// SMTPPort is the SMTP server port
	SMTPPort int
	// SMTPUsername is the SMTP authentication username
	SMTPUsername string
	// SMTPPassword is the SMTP authentication password
	SMTPPassword string
	// SMTPTLS enables STARTTLS (or implicit TLS on port 465)
	SMTPTLS bool
	// FromAddress is the email address used as sender
	FromAddress string
	// FromName is the display name used as sender
	FromName string
	// AppURL is the base URL of the application
	AppURL string
	// QueueSize is the number of messages buffered for asynchronous delivery
	QueueSize int
}

// CloudinaryConfig contains avatar storage settings
type CloudinaryConfig struct {
	CloudName   string
	APIKey      string
	APISecret   string
	Folder      string
	MaxFileSize int64
}

// LogConfig contains logging settings
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string
	// Format is text or json
	Format string
}

// SchedulerConfig contains housekeeping settings
type SchedulerConfig struct {
	// CleanupSchedule is a cron expression for expired token cleanup
	CleanupSchedule string
}

// LoadFromEnv retrieves configuration from environment variables
func (c *Config) LoadFromEnv() error {
	c.API = APIConfig{
		Port:            getEnvOrDefault("API_PORT", "8080"),
		RequestTimeout:  getEnvAsDuration("API_REQUEST_TIMEOUT", 5*time.Second),
		ShutdownTimeout: getEnvAsDuration("API_SHUTDOWN_TIMEOUT", 5*time.Second),
	}
	c.Database = DatabaseConfig{
		Host:           getEnvOrDefault("DB_HOST", "localhost"),
		Port:           getEnvAsInt("DB_PORT", 5432),
		User:           getEnvOrDefault("DB_USER", "postgres"),
		Password:       getEnvOrDefault("DB_PASSWORD", "postgres"),
		DBName:         getEnvOrDefault("DB_NAME", "contacts"),
		SSLMode:        getEnvOrDefault("DB_SSL_MODE", "disable"),
		MigrationsPath: getEnvOrDefault("DB_MIGRATIONS_PATH", "migrations"),
	}
	c.Redis = RedisConfig{
		Enabled:          getEnvAsBool("REDIS_ENABLED", true),
		URL:              getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		DialTimeout:      getEnvAsDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
		OperationTimeout: getEnvAsDuration("REDIS_OPERATION_TIMEOUT", 500*time.Millisecond),
	}
	c.Auth = AuthConfig{
		JWTSecret:                os.Getenv("JWT_SECRET"),
		SessionTokenTTL:          getEnvAsDuration("SESSION_TOKEN_TTL", 30*time.Minute),
		ResetTokenTTL:            getEnvAsDuration("RESET_TOKEN_TTL", time.Hour),
		VerificationTokenTTL:     getEnvAsDuration("VERIFICATION_TOKEN_TTL", 24*time.Hour),
		RequireEmailVerification: getEnvAsBool("REQUIRE_EMAIL_VERIFICATION", false),
		RegistrationOpen:         getEnvAsBool("REGISTRATION_OPEN", true),
	}
	c.Email = EmailConfig{
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPTLS:      getEnvAsBool("SMTP_TLS", true),
		FromAddress:  os.Getenv("SMTP_FROM"),
		FromName:     getEnvOrDefault("SMTP_FROM_NAME", "Contacts API"),
		AppURL:       getEnvOrDefault("APP_URL", "http://localhost:8080"),
		QueueSize:    getEnvAsInt("EMAIL_QUEUE_SIZE", 100),
	}
	c.Cloudinary = CloudinaryConfig{
		CloudName:   os.Getenv("CLOUDINARY_NAME"),
		APIKey:      os.Getenv("CLOUDINARY_API_KEY"),
		APISecret:   os.Getenv("CLOUDINARY_API_SECRET"),
		Folder:      getEnvOrDefault("CLOUDINARY_FOLDER", "avatars"),
		MaxFileSize: int64(getEnvAsInt("MAX_FILE_SIZE", 5<<20)),
	}
	c.Log = LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "text"),
	}
	c.Scheduler = SchedulerConfig{
		CleanupSchedule: getEnvOrDefault("CLEANUP_SCHEDULE", "@every 1h"),
	}

	c.RateLimit = RateLimitConfig{
		Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 1000),
		Window:   getEnvAsInt("RATE_LIMIT_WINDOW", 60),
		Burst:    getEnvAsInt("RATE_LIMIT_BURST", 50),

		Login:         getLimit("LOGIN", 10, time.Minute),
		Register:      getLimit("REGISTER", 5, time.Minute),
		ResetPerEmail: getLimit("RESET_EMAIL", 3, time.Hour),
		ResetPerIP:    getLimit("RESET_IP", 10, time.Hour),
		ResetConfirm:  getLimit("RESET_CONFIRM", 10, 15*time.Minute),
		Verification:  getLimit("VERIFY", 10, time.Minute),
	}

	return c.Validate()
}

// Validate checks invariants the rest of the application relies on
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Auth.SessionTokenTTL <= 0 || c.Auth.ResetTokenTTL <= 0 || c.Auth.VerificationTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	for name, l := range map[string]Limit{
		"LOGIN":         c.RateLimit.Login,
		"REGISTER":      c.RateLimit.Register,
		"RESET_EMAIL":   c.RateLimit.ResetPerEmail,
		"RESET_IP":      c.RateLimit.ResetPerIP,
		"RESET_CONFIRM": c.RateLimit.ResetConfirm,
		"VERIFY":        c.RateLimit.Verification,
	} {
		if l.Max <= 0 || l.Window <= 0 {
			return fmt.Errorf("rate limit %s must have a positive max and window", name)
		}
	}
	return nil
}

// DSN returns the lib/pq keyword connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// URL returns the postgres:// connection URL used by migrations
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// getLimit reads <PREFIX>_MAX_ATTEMPTS and <PREFIX>_WINDOW
func getLimit(prefix string, max int, window time.Duration) Limit {
	return Limit{
		Max:    getEnvAsInt(prefix+"_MAX_ATTEMPTS", max),
		Window: getEnvAsDuration(prefix+"_WINDOW", window),
	}
}

// getEnvAsInt retrieves an environment variable and converts it to an integer
func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvAsBool retrieves an environment variable and converts it to a boolean
func getEnvAsBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvAsDuration accepts Go duration strings ("15m") or plain seconds
func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if s, err := strconv.Atoi(v); err == nil {
			return time.Duration(s) * time.Second
		}
	}
	return defaultVal
}

func getEnvOrDefault(key string, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
