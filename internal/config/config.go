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
	DataDir             string // Base directory for all databases (always absolute)
	SimulatorServiceURL string // External simulator microservice; empty selects the embedded backend
	LogLevel            string
	Port                int
	DevMode             bool
	NumQubits           int
	Seed                uint64 // Seed for the processor's random source; 0 picks a time-based seed
	RunRetentionDays    int    // Persisted runs older than this are purged by the cleanup job
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory:
	// 1. QUANTUM_DATA_DIR environment variable
	// 2. Default to ./data
	// 3. Always resolve to absolute path and ensure it exists
	dataDir := getEnv("QUANTUM_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		Port:                getEnvAsInt("GO_PORT", 8001),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		SimulatorServiceURL: getEnv("SIMULATOR_SERVICE_URL", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		NumQubits:           getEnvAsInt("NUM_QUBITS", 4),
		Seed:                getEnvAsUint64("SEED", 0),
		RunRetentionDays:    getEnvAsInt("RUN_RETENTION_DAYS", 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.NumQubits < 1 {
		return fmt.Errorf("NUM_QUBITS must be at least 1, got %d", c.NumQubits)
	}
	// Dense state vectors double per qubit; past this width a single state
	// no longer fits comfortably in memory.
	if c.NumQubits > 24 {
		return fmt.Errorf("NUM_QUBITS must be at most 24, got %d", c.NumQubits)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT must be a valid port, got %d", c.Port)
	}
	if c.RunRetentionDays < 1 {
		return fmt.Errorf("RUN_RETENTION_DAYS must be at least 1, got %d", c.RunRetentionDays)
	}
	return nil
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

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
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
