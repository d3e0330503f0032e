package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnv sets an environment variable for the test and restores the
// original value afterwards.
func setEnv(t *testing.T, key, value string) {
	t.Helper()

	original, had := os.LookupEnv(key)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, original)
		} else {
			os.Unsetenv(key)
		}
	})

	if value == "" {
		os.Unsetenv(key)
	} else {
		os.Setenv(key, value)
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"QUANTUM_DATA_DIR", "GO_PORT", "NUM_QUBITS", "SEED", "RUN_RETENTION_DAYS", "SIMULATOR_SERVICE_URL", "LOG_LEVEL", "DEV_MODE"} {
		setEnv(t, key, "")
	}
	setEnv(t, "QUANTUM_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, 4, cfg.NumQubits)
	assert.Equal(t, uint64(0), cfg.Seed)
	assert.Equal(t, 30, cfg.RunRetentionDays)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.SimulatorServiceURL)
	assert.False(t, cfg.DevMode)
}

func TestLoad_FromEnvironment(t *testing.T) {
	setEnv(t, "QUANTUM_DATA_DIR", t.TempDir())
	setEnv(t, "GO_PORT", "9000")
	setEnv(t, "NUM_QUBITS", "6")
	setEnv(t, "SEED", "12345")
	setEnv(t, "RUN_RETENTION_DAYS", "7")
	setEnv(t, "SIMULATOR_SERVICE_URL", "http://localhost:5000")
	setEnv(t, "LOG_LEVEL", "debug")
	setEnv(t, "DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 6, cfg.NumQubits)
	assert.Equal(t, uint64(12345), cfg.Seed)
	assert.Equal(t, 7, cfg.RunRetentionDays)
	assert.Equal(t, "http://localhost:5000", cfg.SimulatorServiceURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
}

func TestLoad_DataDirResolvedAndCreated(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", "data")
	setEnv(t, "QUANTUM_DATA_DIR", dataDir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.DataDir))

	info, err := os.Stat(cfg.DataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestValidate(t *testing.T) {
	valid := Config{
		DataDir:          "/tmp",
		Port:             8001,
		NumQubits:        4,
		RunRetentionDays: 30,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero qubits", func(c *Config) { c.NumQubits = 0 }},
		{"too many qubits", func(c *Config) { c.NumQubits = 25 }},
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"retention zero", func(c *Config) { c.RunRetentionDays = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
