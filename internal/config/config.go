package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the service
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	NATS        NATSConfig
	App         AppConfig
	Invitation  InvitationConfig
	Integration IntegrationConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL string
}

// AppConfig holds application configuration
type AppConfig struct {
	Environment string
	LogLevel    string
	JWTSecret   string
	// InternalSecretHash is the bcrypt hash of the shared secret required by
	// internal endpoints (expiry sweep). INTERNAL_SECRET as plain text is
	// accepted in development only.
	InternalSecretHash string
	InternalSecret     string
}

// InvitationConfig holds invitation lifecycle configuration
type InvitationConfig struct {
	ExpiryHours          int    // validity window of a freshly issued invitation (default: 168 = 7 days)
	SweepIntervalMinutes int    // how often the in-process sweep job runs (default: 15)
	AcceptBaseURL        string // frontend URL the acceptance link points at
	SeatCacheTTLSeconds  int    // TTL of the cached seat summary (default: 30)
}

// IntegrationConfig holds configuration for external service integrations
type IntegrationConfig struct {
	NotificationServiceURL string
	NotificationAPIKey     string
}

// New creates a new configuration instance. In development a local .env file
// is loaded first so the service can run outside the cluster.
func New() *Config {
	if getEnvWithDefault("APP_ENV", "development") == "development" {
		_ = godotenv.Load()
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnvWithDefault("SERVER_HOST", "0.0.0.0"),
			Port: getEnvWithDefault("SERVER_PORT", "8091"),
		},
		Database: DatabaseConfig{
			Host:     getEnvWithDefault("DB_HOST", "localhost"),
			Port:     getEnvWithDefault("DB_PORT", "5432"),
			User:     getEnvWithDefault("DB_USER", "postgres"),
			Password: getEnvWithDefault("DB_PASSWORD", ""),
			Name:     getEnvWithDefault("DB_NAME", "team_db"),
			SSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnvWithDefault("REDIS_HOST", "localhost"),
			Port:     getEnvWithDefault("REDIS_PORT", "6379"),
			Password: getEnvWithDefault("REDIS_PASSWORD", ""),
			DB:       getEnvAsIntWithDefault("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL: getEnvWithDefault("NATS_URL", "nats://localhost:4222"),
		},
		App: AppConfig{
			Environment:        getEnvWithDefault("APP_ENV", "development"),
			LogLevel:           getEnvWithDefault("LOG_LEVEL", "info"),
			JWTSecret:          getEnvWithDefault("JWT_SECRET", ""),
			InternalSecretHash: getEnvWithDefault("INTERNAL_SECRET_HASH", ""),
			InternalSecret:     getEnvWithDefault("INTERNAL_SECRET", ""),
		},
		Invitation: InvitationConfig{
			ExpiryHours:          getEnvAsIntWithDefault("INVITATION_EXPIRY_HOURS", 168), // 7 days
			SweepIntervalMinutes: getEnvAsIntWithDefault("INVITATION_SWEEP_INTERVAL_MINS", 15),
			AcceptBaseURL:        getEnvWithDefault("INVITATION_ACCEPT_BASE_URL", "http://localhost:3000/invitations/accept"),
			SeatCacheTTLSeconds:  getEnvAsIntWithDefault("SEAT_CACHE_TTL_SECONDS", 30),
		},
		Integration: IntegrationConfig{
			NotificationServiceURL: getEnvWithDefault("NOTIFICATION_SERVICE_URL", "http://localhost:8087"),
			NotificationAPIKey:     getEnvWithDefault("NOTIFICATION_SERVICE_API_KEY", ""),
		},
	}
}

// getEnvWithDefault gets environment variable with a default fallback
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntWithDefault gets environment variable as integer with default fallback
func getEnvAsIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
