// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int
	Host           string
	MetricsEnabled bool
}

// DatabaseConfig holds MongoDB connection settings
type DatabaseConfig struct {
	URI  string
	Name string
}

// AuthConfig holds token issuing settings
type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	GoogleClientID  string
}

// MediaConfig holds the external image-host settings
type MediaConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig
	Database       *DatabaseConfig
	Auth           *AuthConfig
	Media          *MediaConfig
	AllowedOrigins []string
	Debug          bool
}

// DefaultConfig provides default server settings
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:           8080,
		Host:           "0.0.0.0",
		MetricsEnabled: true,
	}
}

// LoadConfig loads configuration from environment variables and applies defaults
func LoadConfig() (*Config, error) {
	// Try to load .env file from multiple possible locations
	envLocations := []string{
		".env",          // Current directory
		"../../.env",    // Project root when running from cmd/server
		"../../../.env", // Even higher directory
		filepath.Join(os.Getenv("GOPATH"), "src/inkwell/.env"), // GOPATH location
	}

	envLoaded := false
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		// Silent failure if no .env exists, which is fine
		_ = godotenv.Load()
	}

	serverConfig := DefaultConfig()

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			serverConfig.Port = port
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		serverConfig.Host = host
	}

	if metricsEnabled := os.Getenv("METRICS_ENABLED"); metricsEnabled != "" {
		serverConfig.MetricsEnabled = metricsEnabled == "true"
	}

	dbConfig := &DatabaseConfig{
		URI:  getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		Name: getEnvOrDefault("MONGODB_DB_NAME", "inkwell"),
	}

	authConfig := &AuthConfig{
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		GoogleClientID:  os.Getenv("GOOGLE_CLIENT_ID"),
	}
	if authConfig.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	if ttlStr := os.Getenv("ACCESS_TOKEN_TTL_MINUTES"); ttlStr != "" {
		if minutes, err := strconv.Atoi(ttlStr); err == nil && minutes > 0 {
			authConfig.AccessTokenTTL = time.Duration(minutes) * time.Minute
		}
	}

	if ttlStr := os.Getenv("REFRESH_TOKEN_TTL_DAYS"); ttlStr != "" {
		if days, err := strconv.Atoi(ttlStr); err == nil && days > 0 {
			authConfig.RefreshTokenTTL = time.Duration(days) * 24 * time.Hour
		}
	}

	mediaConfig := &MediaConfig{
		BaseURL:   os.Getenv("MEDIA_BASE_URL"),
		APIKey:    os.Getenv("MEDIA_API_KEY"),
		APISecret: os.Getenv("MEDIA_API_SECRET"),
	}

	config := &Config{
		Server:         serverConfig,
		Database:       dbConfig,
		Auth:           authConfig,
		Media:          mediaConfig,
		AllowedOrigins: []string{"*"}, // Default to allow all origins
		Debug:          false,
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		config.Debug = true
	}

	return config, nil
}

// Helper function to get environment variable with default fallback
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
