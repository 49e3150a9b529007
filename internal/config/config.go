package config

import (
	"os"
	"strconv"
	"time"

	"equipdata/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Upload   UploadConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// AuthConfig holds token signing settings
type AuthConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// UploadConfig holds ingestion limits
type UploadConfig struct {
	MaxFileSize int64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	authConfig, err := loadAuthConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load auth configuration")
	}
	config.Auth = *authConfig

	config.Server = loadServerConfig()
	config.Upload = loadUploadConfig()

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	return &DatabaseConfig{URL: url}, nil
}

func loadAuthConfig() (*AuthConfig, error) {
	secret := os.Getenv("AUTH_SECRET")
	if secret == "" {
		return nil, errors.ConfigInvalid("AUTH_SECRET is required")
	}

	return &AuthConfig{
		Secret:          secret,
		AccessTokenTTL:  getEnvDurationOrDefault("ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL: getEnvDurationOrDefault("REFRESH_TOKEN_TTL", 24*time.Hour),
	}, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("SERVER_PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadUploadConfig() UploadConfig {
	return UploadConfig{
		MaxFileSize: getEnvInt64OrDefault("UPLOAD_MAX_FILE_SIZE", 10*1024*1024),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
