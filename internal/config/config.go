// Package config centralises configuration parsing for the live activity service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration values for the service.
type Config struct {
	HTTPAddress        string
	PostgresURL        string // empty selects the in-memory repository
	KafkaBrokers       []string
	EventBufferSize    int
	ExpiryPollInterval time.Duration
	JWTSecret          string
	JWTIssuer          string
	PlatformSupported  bool
	PlatformPermitted  bool
}

// Load reads environment variables into Config, applying sensible defaults for local dev.
func Load() Config {
	cfg := Config{
		HTTPAddress:        getEnv("HTTP_ADDRESS", ":8080"),
		PostgresURL:        getEnv("POSTGRES_URL", ""),
		EventBufferSize:    getIntEnv("EVENT_BUFFER_SIZE", 10),
		ExpiryPollInterval: getDurationEnv("EXPIRY_POLL_INTERVAL", 30*time.Second),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:          getEnv("JWT_ISSUER", "live-activity.identity"),
		PlatformSupported:  getBoolEnv("PLATFORM_SUPPORTED", true),
		PlatformPermitted:  getBoolEnv("PLATFORM_PERMITTED", true),
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
