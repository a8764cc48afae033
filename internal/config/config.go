package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "supersecretkey"

// Config holds all application configuration
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Auth         AuthConfig
	Redis        RedisConfig
	Logging      LoggingConfig
	Oracle       OracleConfig
	Stripe       StripeConfig
	Uploads      UploadsConfig
	Entitlement  EntitlementConfig
	RateLimit    RateLimitConfig
	Housekeeping HousekeepingConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FrontendURL     string
	Environment     string
}

// IsDevelopment reports whether the server runs in development mode
func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development"
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	BCryptCost         int
	SecureCookies      bool
}

// RedisConfig contains Redis configuration. When enabled, rate limits are
// shared across instances through Redis.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
}

// OracleConfig selects and tunes the vision model backend
type OracleConfig struct {
	Provider       string // openai or gemini
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	GeminiAPIKey   string
	PresenceModel  string
	DiseaseModel   string
	AssistantModel string
	Timeout        time.Duration
}

// StripeConfig contains billing configuration
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// UploadsConfig configures where diagnosis images are kept
type UploadsConfig struct {
	Backend       string // local, s3 or gcs
	Dir           string
	MaxBytes      int64
	RetentionDays int

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3Prefix          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	GCSBucket          string
	GCSPrefix          string
	GCSCredentialsFile string
}

// EntitlementConfig contains premium grant settings
type EntitlementConfig struct {
	// SignupPremiumDays grants premium to new accounts. Zero disables it.
	SignupPremiumDays int
	// PaidPremiumDays is the premium window granted by a one-off payment.
	PaidPremiumDays int
}

// RateLimitConfig contains rate limiting settings
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	DiagnosePerMinute int
	LimiterIdleExpiry time.Duration
}

// HousekeepingConfig holds cron schedules (with a seconds field)
type HousekeepingConfig struct {
	Enabled                bool
	UploadSweepSchedule    string
	LimiterCleanupSchedule string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
			Environment:     getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "leafdoctor"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            getEnv("DB_PATH", "./leafdoctor.db"),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshTokenExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
			BCryptCost:         getEnvAsInt("BCRYPT_COST", 12),
			SecureCookies:      getEnvAsBool("SECURE_COOKIES", false),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		Oracle: OracleConfig{
			Provider:       strings.ToLower(getEnv("ORACLE_PROVIDER", "openai")),
			OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
			GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
			PresenceModel:  getEnv("ORACLE_PRESENCE_MODEL", "gpt-4o"),
			DiseaseModel:   getEnv("ORACLE_DISEASE_MODEL", "gpt-4o"),
			AssistantModel: getEnv("ORACLE_ASSISTANT_MODEL", "gpt-4o"),
			Timeout:        getEnvAsDuration("ORACLE_TIMEOUT", 60*time.Second),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
		Uploads: UploadsConfig{
			Backend:            strings.ToLower(getEnv("UPLOAD_BACKEND", "local")),
			Dir:                getEnv("UPLOAD_DIR", "./uploads"),
			MaxBytes:           int64(getEnvAsInt("UPLOAD_MAX_BYTES", 5<<20)),
			RetentionDays:      getEnvAsInt("UPLOAD_RETENTION_DAYS", 0),
			S3Bucket:           getEnv("S3_BUCKET", ""),
			S3Region:           getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:         getEnv("S3_ENDPOINT", ""),
			S3Prefix:           getEnv("S3_PREFIX", "uploads/"),
			S3AccessKeyID:      getEnv("S3_ACCESS_KEY_ID", ""),
			S3SecretAccessKey:  getEnv("S3_SECRET_ACCESS_KEY", ""),
			GCSBucket:          getEnv("GCS_BUCKET", ""),
			GCSPrefix:          getEnv("GCS_PREFIX", "uploads/"),
			GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
		Entitlement: EntitlementConfig{
			SignupPremiumDays: getEnvAsInt("SIGNUP_PREMIUM_DAYS", 30),
			PaidPremiumDays:   getEnvAsInt("PAID_PREMIUM_DAYS", 30),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
			DiagnosePerMinute: getEnvAsInt("DIAGNOSE_RATE_PER_MINUTE", 10),
			LimiterIdleExpiry: getEnvAsDuration("RATE_LIMIT_IDLE_EXPIRY", 10*time.Minute),
		},
		Housekeeping: HousekeepingConfig{
			Enabled:                getEnvAsBool("HOUSEKEEPING_ENABLED", true),
			UploadSweepSchedule:    getEnv("UPLOAD_SWEEP_SCHEDULE", "0 30 3 * * *"),
			LimiterCleanupSchedule: getEnv("LIMITER_CLEANUP_SCHEDULE", "0 */5 * * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.Auth.JWTSecret == defaultJWTSecret && !c.Server.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET must not use the default value outside development")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Oracle.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unsupported oracle provider: %s", c.Oracle.Provider)
	}
	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("ORACLE_TIMEOUT must be positive")
	}

	switch c.Uploads.Backend {
	case "local":
	case "s3":
		if c.Uploads.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 upload backend")
		}
	case "gcs":
		if c.Uploads.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for the gcs upload backend")
		}
	default:
		return fmt.Errorf("unsupported upload backend: %s", c.Uploads.Backend)
	}
	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}

	if c.Entitlement.SignupPremiumDays < 0 {
		return fmt.Errorf("SIGNUP_PREMIUM_DAYS must not be negative")
	}
	if c.Entitlement.PaidPremiumDays <= 0 {
		return fmt.Errorf("PAID_PREMIUM_DAYS must be positive")
	}

	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
