// Package config provides environment configuration for the service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration.
type Config struct {
	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// PostgreSQL
	DatabaseDSN string

	// Redis (presence cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// NATS (messaging)
	NATSURL        string
	RequestTimeout time.Duration

	// JWT
	JWTSecret     string
	JWTExpiration time.Duration

	// Presence. The key prefix is a single shared namespace across all
	// instances; there is no per-instance partitioning.
	StatusKeyPrefix string

	// Conversations
	ConversationCollection string

	// Outbox dispatcher
	OutboxInterval time.Duration
	OutboxBatch    int

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),

		DatabaseDSN: getEnv("DATABASE_DSN",
			"host=localhost user=user password=password dbname=userhivedb port=5432 sslmode=disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		NATSURL:        getEnv("NATS_URL", "nats://localhost:4222"),
		RequestTimeout: getDurationEnv("NATS_REQUEST_TIMEOUT", 10*time.Second),

		JWTSecret:     getEnv("JWT_SECRET", "development-secret-change-in-production"),
		JWTExpiration: getDurationEnv("JWT_EXPIRATION", 72*time.Hour),

		StatusKeyPrefix: getEnv("STATUS_KEY_PREFIX", "USERS_STATUS"),

		ConversationCollection: getEnv("CONVERSATION_COLLECTION", "conversations"),

		OutboxInterval: getDurationEnv("OUTBOX_INTERVAL", time.Second),
		OutboxBatch:    getIntEnv("OUTBOX_BATCH", 64),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
