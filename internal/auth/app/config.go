package app

import (
	"os"
	"strconv"
	"time"

	"github.com/sprintdeck/sprintdeck/pkg/jwtx"
)

type Config struct {
	Issuer string // Issuer claim for tokens (default: sprintdeck-auth)

	AccessSecret  string        // Required: HMAC secret for access tokens
	RefreshSecret string        // Required: HMAC secret for refresh tokens
	AccessTTL     time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL    time.Duration // Optional: refresh token lifetime (default: 7d)

	HashCost      int    // Optional: bcrypt cost (default: library default)
	DatabaseFile  string // Optional: path to SQLite database file (default: ./auth.db)
	PublicBaseURL string // Optional: base URL for links in outbound email

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:               getEnvOrDefault("AUTH_ISSUER", "sprintdeck-auth"),
		AccessSecret:         os.Getenv("AUTH_ACCESS_SECRET"),
		RefreshSecret:        os.Getenv("AUTH_REFRESH_SECRET"),
		AccessTTL:            getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:           getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		HashCost:             getEnvIntOrDefault("AUTH_HASH_COST", 0),
		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PublicBaseURL:        getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
