package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Database configuration
	DBType            string // mysql, mariadb, postgres, sqlite, sqlite-cgo, sqlserver, memory
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Authorizer configuration
	AuthzURL      string
	AuthzClientID string

	// Voting configuration
	MaxVotesPerAddress int
	MaxPhotos          int
	VoteRetryLimit     int
	VoteRetryInterval  time.Duration
}

// Load loads configuration from environment variables.
// When ENV_FILE names a file its variables are loaded first; the process environment wins.
func Load() (*Config, error) {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		DBType:             getEnv("DB_TYPE", "mysql"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBDatabase:         getEnv("DB_DATABASE", ""),
		DBUser:             getEnv("DB_USER", ""),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBConnectionLimit:  getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		AuthzURL:           getEnv("AUTHZ_URL", ""),
		AuthzClientID:      getEnv("AUTHZ_CLIENT_ID", ""),
		MaxVotesPerAddress: getEnvAsInt("MAX_VOTES_PER_ADDRESS", 10),
		MaxPhotos:          getEnvAsInt("MAX_PHOTOS", 10),
		VoteRetryLimit:     getEnvAsInt("VOTE_RETRY_LIMIT", 5),
		VoteRetryInterval:  time.Duration(getEnvAsInt("VOTE_RETRY_INTERVAL_MS", 10)) * time.Millisecond,
	}

	// Validate required fields
	if cfg.DBType != "memory" {
		if cfg.DBDatabase == "" {
			return nil, fmt.Errorf("DB_DATABASE is required")
		}
		if cfg.DBUser == "" && !cfg.IsSQLite() {
			return nil, fmt.Errorf("DB_USER is required")
		}
	}
	if cfg.AuthzURL == "" {
		return nil, fmt.Errorf("AUTHZ_URL is required")
	}
	if cfg.AuthzClientID == "" {
		return nil, fmt.Errorf("AUTHZ_CLIENT_ID is required")
	}
	if cfg.MaxVotesPerAddress <= 0 {
		return nil, fmt.Errorf("MAX_VOTES_PER_ADDRESS must be positive")
	}
	if cfg.MaxPhotos <= 0 {
		return nil, fmt.Errorf("MAX_PHOTOS must be positive")
	}
	if cfg.VoteRetryLimit < 0 {
		return nil, fmt.Errorf("VOTE_RETRY_LIMIT must not be negative")
	}

	return cfg, nil
}

// IsSQLite reports whether the configured database is a SQLite file
func (c *Config) IsSQLite() bool {
	return c.DBType == "sqlite" || c.DBType == "sqlite-cgo"
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
