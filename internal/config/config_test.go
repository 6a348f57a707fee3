package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"backup_dir": "/tmp",
		"no_backup": false,
		"verbose": true,
		"concurrency": 4,
		"database_url": "postgres://localhost/bacpacfix",
		"port": 9090
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "/tmp", cfg.BackupDir)
	assert.False(t, cfg.NoBackup)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "postgres://localhost/bacpacfix", cfg.DatabaseURL)
	assert.Equal(t, 9090, cfg.Port)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	content := `{ invalid json }`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_UnknownFieldRejected(t *testing.T) {
	content := `{"bogus_field": true}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "schema validation")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate_NegativeConcurrency(t *testing.T) {
	cfg := &Config{Concurrency: -1}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency")
}

func TestValidate_PortOutOfRange(t *testing.T) {
	cfg := &Config{Port: 70000}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestValidate_BackupDirMissing(t *testing.T) {
	cfg := &Config{BackupDir: filepath.Join(t.TempDir(), "does-not-exist")}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "backup directory not found")
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		BackupDir:   t.TempDir(),
		Concurrency: 4,
		Port:        8080,
	}

	err := cfg.Validate()
	assert.NoError(t, err)
}

func TestMergeWithDefaults(t *testing.T) {
	defaults := Config{
		BackupDir:   "/var/backups",
		DatabaseURL: "postgres://default",
		Concurrency: 4,
		Port:        8080,
	}

	partial := Config{
		BackupDir: "/custom/backups",
	}

	merged := partial.MergeWithDefaults(defaults)

	// Custom values should be preserved
	assert.Equal(t, "/custom/backups", merged.BackupDir)

	// Default values should fill in empty fields
	assert.Equal(t, "postgres://default", merged.DatabaseURL)
	assert.Equal(t, 4, merged.Concurrency)
	assert.Equal(t, 8080, merged.Port)
}
