package config

import (
	"os"
	"strconv"
)

type Config struct {
	// APP
	AppEnv string
	Port   string

	// Database
	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string

	JWTSecret string

	// devRecords source system
	DevRecordsBaseURL string
	DevRecordsToken   string
	DevRecordsOrgID   string

	// Admin login
	AdminUsername string
	AdminPassword string

	// Apply retry policy
	SyncApplyRetries   int
	SyncRetryBackoffMs int

	// Whether orphan deletion is allowed when the caller does not say
	SyncDeleteOrphaned bool
}

func Load() (*Config, error) {
	cfg := &Config{
		// App
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8002"),

		// DB
		DBHost: getEnv("DB_HOST", "127.0.0.1"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBUser: getEnv("DB_USER", "postgres"),
		DBPass: getEnv("DB_PASS", "postgres"),
		DBName: getEnv("DB_NAME", "billsync_db"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "secret123"),

		// devRecords
		DevRecordsBaseURL: getEnv("DEVRECORDS_BASE_URL", "https://api.devrecords.io"),
		DevRecordsToken:   getEnv("DEVRECORDS_TOKEN", ""),
		DevRecordsOrgID:   getEnv("DEVRECORDS_ORG_ID", ""),

		// Admin login
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "billsync-2025"),

		// Sync settings
		SyncApplyRetries:   getEnvInt("SYNC_APPLY_RETRIES", 3),
		SyncRetryBackoffMs: getEnvInt("SYNC_RETRY_BACKOFF_MS", 250),
		SyncDeleteOrphaned: getEnvBool("SYNC_DELETE_ORPHANED", false),
	}

	return cfg, nil
}

// getEnv returns environment variable or default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns int from env or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvBool returns bool from env or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
