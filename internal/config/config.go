package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	Environment    string
	LogLevel       string
	AllowedOrigins []string

	// Pinning service
	PinataJWT       string
	PinataGateway   string
	PinataGroupID   string
	PinataAPIURL    string
	PinataUploadURL string

	// Optional backing services. Empty disables the component.
	RedisURL         string
	DatabaseURL      string
	RabbitMQURL      string
	RabbitMQExchange string

	AuthJWTSecret string
	AuthRequired  bool

	RegistrationMaxAttempts int
	RegistrationBaseDelay   time.Duration
	RegistrationTimeout     time.Duration
	LockTimeout             time.Duration
	UpdateMaxAttempts       int
	UpdateBaseDelay         time.Duration

	MaxUploadBytes    int64
	HackathonCacheTTL time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "production"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		PinataJWT:       getEnv("PINATA_JWT", ""),
		PinataGateway:   getEnv("PINATA_GATEWAY", ""),
		PinataGroupID:   getEnv("PINATA_GROUP_ID", ""),
		PinataAPIURL:    getEnv("PINATA_API_URL", "https://api.pinata.cloud"),
		PinataUploadURL: getEnv("PINATA_UPLOAD_URL", "https://uploads.pinata.cloud"),

		RedisURL:         getEnv("REDIS_URL", ""),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "athena.events"),

		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		AuthRequired:  getBoolEnv("AUTH_REQUIRED", false),

		RegistrationMaxAttempts: getIntEnv("REGISTRATION_MAX_ATTEMPTS", 3),
		RegistrationBaseDelay:   getDurationEnv("REGISTRATION_BASE_DELAY", time.Second),
		RegistrationTimeout:     getDurationEnv("REGISTRATION_TIMEOUT", 30*time.Second),
		LockTimeout:             getDurationEnv("LOCK_TIMEOUT", 10*time.Second),
		UpdateMaxAttempts:       getIntEnv("UPDATE_MAX_ATTEMPTS", 5),
		UpdateBaseDelay:         getDurationEnv("UPDATE_BASE_DELAY", time.Second),

		MaxUploadBytes:    int64(getIntEnv("MAX_UPLOAD_BYTES", 10<<20)),
		HackathonCacheTTL: getDurationEnv("HACKATHON_CACHE_TTL", 30*time.Second),
	}

	return cfg, cfg.Validate()
}

// Validate reports configuration the service cannot start without
func (c *Config) Validate() error {
	var errs []error
	if c.PinataJWT == "" {
		errs = append(errs, errors.New("PINATA_JWT is required"))
	}
	if c.PinataGateway == "" {
		errs = append(errs, errors.New("PINATA_GATEWAY is required"))
	}
	if c.AuthRequired && c.AuthJWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required when AUTH_REQUIRED is set"))
	}
	if c.RegistrationMaxAttempts < 1 {
		errs = append(errs, errors.New("REGISTRATION_MAX_ATTEMPTS must be at least 1"))
	}
	if c.UpdateMaxAttempts < 1 {
		errs = append(errs, errors.New("UPDATE_MAX_ATTEMPTS must be at least 1"))
	}
	return errors.Join(errs...)
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

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv accepts Go durations ("1500ms") or plain milliseconds ("1500")
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
