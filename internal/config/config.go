package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	Environment    string

	RedisURL    string
	DatabaseURL string // Settlement archive; optional

	JWTSecret   string
	AdminAPIKey string

	PlatformBaseURL      string
	PlatformTokenURL     string
	PlatformClientID     string
	PlatformClientSecret string

	// ContestTopK is how many winning captions settlement publishes.
	ContestTopK int
	// ContestDuration is the default round length when the create
	// request doesn't name one.
	ContestDuration time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Environment:    getEnv("ENVIRONMENT", "production"),

		RedisURL:    getEnv("REDIS_URL", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		PlatformBaseURL:      getEnv("PLATFORM_BASE_URL", ""),
		PlatformTokenURL:     getEnv("PLATFORM_TOKEN_URL", ""),
		PlatformClientID:     getEnv("PLATFORM_CLIENT_ID", ""),
		PlatformClientSecret: getEnv("PLATFORM_CLIENT_SECRET", ""),

		ContestTopK:     getIntEnv("CONTEST_TOP_K", 3),
		ContestDuration: getDurationEnv("CONTEST_DURATION", 24*time.Hour),
	}, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
