package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Storage      StorageConfig
	Webhooks     WebhookConfig
	Fireflies    ProviderAPIConfig
	ReadAI       ProviderAPIConfig
	Gemini       GeminiConfig
	Sync         SyncConfig
	Integrations IntegrationSettings
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	KeyTTL   time.Duration
}

// JWTConfig holds JWT configuration for the records API
type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

// StorageConfig holds storage configuration for the raw payload archive
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// WebhookConfig holds the per-provider authenticity secrets.
// An empty secret disables the check for that provider.
type WebhookConfig struct {
	FirefliesSecret string
	ReadAISecret    string
}

// ProviderAPIConfig holds transcript provider API access
type ProviderAPIConfig struct {
	APIURL    string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// GeminiConfig holds action item extraction model settings
type GeminiConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// SyncConfig holds synchronization tuning
type SyncConfig struct {
	ForceUserSettingsUserID string
	ChannelTimeout          time.Duration
	MaxConcurrentRecipients int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  getEnvAsList("ALLOWED_ORIGINS", "http://localhost:3000"),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "meeting_sync"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			KeyTTL:   getEnvAsDuration("REDIS_INGESTION_KEY_TTL", "72h"),
		},
		JWT: JWTConfig{
			AccessSecret: getEnv("JWT_ACCESS_SECRET", "your-access-secret-change-in-production"),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", "12h"),
			Issuer:       getEnv("JWT_ISSUER", "meeting-sync"),
		},
		Storage: StorageConfig{
			Enabled:         getEnvAsBool("STORAGE_ENABLED", false),
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "meeting-sync"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
		},
		Webhooks: WebhookConfig{
			FirefliesSecret: getEnv("FIREFLIES_WEBHOOK_SECRET", ""),
			ReadAISecret:    getEnv("READ_AI_WEBHOOK_SECRET", ""),
		},
		Fireflies: ProviderAPIConfig{
			APIURL:    getEnv("FIREFLIES_API_URL", "https://api.fireflies.ai/graphql"),
			APIKey:    getEnv("FIREFLIES_API_KEY", ""),
			Timeout:   getEnvAsDuration("FIREFLIES_API_TIMEOUT", "10s"),
			UserAgent: getEnv("FIREFLIES_API_USER_AGENT", "MeetingSync/1.0"),
		},
		ReadAI: ProviderAPIConfig{
			APIURL:    getEnv("READ_AI_API_URL", "https://api.read.ai/v1"),
			APIKey:    getEnv("READ_AI_API_KEY", ""),
			Timeout:   getEnvAsDuration("READ_AI_API_TIMEOUT", "10s"),
			UserAgent: getEnv("READ_AI_API_USER_AGENT", "MeetingSync/1.0"),
		},
		Gemini: GeminiConfig{
			BaseURL: getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Timeout: getEnvAsDuration("GEMINI_API_TIMEOUT", "20s"),
		},
		Sync: SyncConfig{
			ForceUserSettingsUserID: getEnv("FORCE_USER_SETTINGS_USER_ID", ""),
			ChannelTimeout:          getEnvAsDuration("CHANNEL_API_TIMEOUT", "10s"),
			MaxConcurrentRecipients: getEnvAsInt("SYNC_MAX_CONCURRENT_RECIPIENTS", 4),
		},
	}

	if err := envconfig.Process("", &config.Integrations); err != nil {
		return nil, fmt.Errorf("failed to load integration settings: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.Sync.MaxConcurrentRecipients < 1 {
		return fmt.Errorf("SYNC_MAX_CONCURRENT_RECIPIENTS must be positive")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

func getEnvAsList(key string, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
