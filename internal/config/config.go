package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zapcore"

	"github.com/forgo/storefront/api/internal/database"
	"github.com/forgo/storefront/api/pkg/jwt"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Token     TokenConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	ConnectionString string
	Namespace        string
	Database         string
	User             string
	Password         string
	ConnectTimeout   time.Duration
	RequireOnStart   bool
}

// TokenConfig holds token signing settings
type TokenConfig struct {
	Secret    string
	Algorithm string
	Issuer    string
	TTL       time.Duration
}

// RateLimitConfig holds POST /auth rate limit settings
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	RedisURL string
}

// TelemetryConfig holds logging and tracing settings
type TelemetryConfig struct {
	LogLevel     string
	OTLPEndpoint string
	ServiceName  string
}

// Load merges the given .env files (default ".env") into the environment and
// reads configuration with sensible defaults. Missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "4242"),
			Env:             getEnv("SERVER_ENV", "development"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			ConnectionString: getEnv("DB_CONNECTION_STRING", ""),
			Namespace:        getEnv("DB_NAMESPACE", "storefront"),
			Database:         getEnv("DB_DATABASE", "main"),
			User:             getEnv("DB_USER", ""),
			Password:         getEnv("DB_PASSWORD", ""),
			ConnectTimeout:   getDurationEnv("DB_CONNECT_TIMEOUT", database.DefaultConnectTimeout),
			RequireOnStart:   getBoolEnv("DB_REQUIRE_ON_START", false),
		},
		Token: TokenConfig{
			Secret:    os.Getenv("TOKEN_SECRET"),
			Algorithm: getEnv("TOKEN_ALGORITHM", string(jwt.HS256)),
			Issuer:    getEnv("TOKEN_ISSUER", ""),
			TTL:       getDurationEnv("TOKEN_TTL", 0),
		},
		RateLimit: RateLimitConfig{
			Requests: getIntEnv("RATE_LIMIT_REQUESTS", 20),
			Window:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			RedisURL: getEnv("REDIS_URL", ""),
		},
		Telemetry: TelemetryConfig{
			LogLevel:     getEnv("LOG_LEVEL", ""),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "storefront-api"),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a valid port number, got '%s'", c.Server.Port))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	// Database validation
	if c.Database.ConnectionString != "" {
		if _, err := c.Database.Connection().ParseEndpoint(); err != nil {
			errs = append(errs, fmt.Errorf("DB_CONNECTION_STRING: %w", err))
		}
	} else if c.Database.RequireOnStart {
		errs = append(errs, errors.New("DB_CONNECTION_STRING is required when DB_REQUIRE_ON_START is true"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}
	if c.Database.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("DB_CONNECT_TIMEOUT must be positive"))
	}

	// Token validation - the secret is critical for production
	if c.IsProduction() && strings.TrimSpace(c.Token.Secret) == "" {
		errs = append(errs, errors.New("TOKEN_SECRET is required in production"))
	}
	if _, err := jwt.Algorithm(c.Token.Algorithm).Method(); err != nil {
		errs = append(errs, fmt.Errorf("TOKEN_ALGORITHM: %w", err))
	}
	if c.Token.TTL < 0 {
		errs = append(errs, errors.New("TOKEN_TTL must not be negative"))
	}

	// Rate limit validation
	if c.RateLimit.Requests <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.RateLimit.RedisURL != "" {
		if _, err := redis.ParseURL(c.RateLimit.RedisURL); err != nil {
			errs = append(errs, fmt.Errorf("REDIS_URL: %w", err))
		}
	}

	// Telemetry validation
	if c.Telemetry.LogLevel != "" {
		if _, err := zapcore.ParseLevel(strings.ToLower(c.Telemetry.LogLevel)); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Warnings lists settings that are missing but only fail when used.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Database.ConnectionString == "" {
		warnings = append(warnings, "DB_CONNECTION_STRING is not set; product routes will fail until it is")
	}
	if strings.TrimSpace(c.Token.Secret) == "" {
		warnings = append(warnings, "TOKEN_SECRET is not set; token issuance will fail until it is")
	}
	return warnings
}

// Connection returns the connection settings for the database manager.
func (d DatabaseConfig) Connection() database.Config {
	return database.Config{
		Endpoint:       d.ConnectionString,
		Namespace:      d.Namespace,
		Database:       d.Database,
		User:           d.User,
		Password:       d.Password,
		ConnectTimeout: d.ConnectTimeout,
	}
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
