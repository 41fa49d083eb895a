package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                string
	DBPath              string
	JWTSecret           string
	AccessTokenTTL      time.Duration
	AdminEmail          string
	AdminPassword       string
	AdminName           string
	BootstrapCode       string
	DeviceCodeTTL       time.Duration
	AllowLegacySessions bool
	BusinessEmail       string
	RateLimitWindow     time.Duration
}

// Load reads the environment (and .env when present) and validates it for serving.
func Load() (Config, error) {
	cfg := Read()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read returns the configuration without validating it. Operator tooling uses
// it since it never signs sessions.
func Read() Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	return Config{
		Port:                getEnvOrDefault("PORT", "8080"),
		DBPath:              getEnvOrDefault("DB_PATH", "./joy.db"),
		JWTSecret:           getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:      getDurationEnv("ACCESS_TOKEN_TTL", 120, time.Minute),
		AdminEmail:          strings.ToLower(getEnvOrDefault("ADMIN_EMAIL", "")),
		AdminPassword:       getEnvOrDefault("ADMIN_PASSWORD", ""),
		AdminName:           getEnvOrDefault("ADMIN_NAME", "Admin"),
		BootstrapCode:       getEnvOrDefault("BOOTSTRAP_CODE", ""),
		DeviceCodeTTL:       getDurationEnv("DEVICE_CODE_TTL", 15, time.Minute),
		AllowLegacySessions: getBoolEnv("ALLOW_LEGACY_SESSIONS", true),
		BusinessEmail:       getEnvOrDefault("BUSINESS_EMAIL", ""),
		RateLimitWindow:     getDurationEnv("RATE_LIMIT_WINDOW", 2, time.Second),
	}
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		log.Println("[CONFIG] [WARN] JWT_SECRET is shorter than 32 characters")
	}
	if c.BootstrapCode == "" {
		log.Println("[CONFIG] [WARN] BOOTSTRAP_CODE not set, first device must be registered with ledgerctl")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
