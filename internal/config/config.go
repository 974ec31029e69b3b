// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir            string // Base directory for the data file, cache DB and backups (always absolute)
	Port               int
	LogLevel           string
	DevMode            bool
	OpLabBaseURL       string
	OpLabAccessToken   string
	AutoBackupInterval int // structures between auto-backup prompts, 0 disables
	AutosaveSeconds    int // periodic save interval for the document store
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TRACKER_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("PORT", 3000),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		OpLabBaseURL:       getEnv("OPLAB_BASE_URL", "https://api.oplab.com.br/v3/market"),
		OpLabAccessToken:   getEnv("OPLAB_ACCESS_TOKEN", ""),
		AutoBackupInterval: getEnvAsInt("AUTO_BACKUP_INTERVAL", 25),
		AutosaveSeconds:    getEnvAsInt("AUTOSAVE_SECONDS", 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.OpLabAccessToken == "" {
		return fmt.Errorf("OPLAB_ACCESS_TOKEN not set, check your .env file")
	}
	if c.AutoBackupInterval < 0 {
		return fmt.Errorf("AUTO_BACKUP_INTERVAL must not be negative")
	}
	if c.AutosaveSeconds <= 0 {
		return fmt.Errorf("AUTOSAVE_SECONDS must be positive")
	}
	return nil
}

// DataFilePath returns the path of the persisted JSON document.
func (c *Config) DataFilePath() string {
	return filepath.Join(c.DataDir, "data.json")
}

// CacheDBPath returns the path of the quote cache database.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.DataDir, "quote_cache.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
