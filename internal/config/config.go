// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mbreukel/BacpacCompatFixer/internal/schemas"
)

// configSchemaPath locates the JSON Schema the config file is checked
// against when the schema ships alongside the binary.
const configSchemaPath = "schemas/config.schema.json"

// Config represents the CLI configuration that can be loaded from a JSON
// file. All fields are optional; missing values use defaults or must be
// provided via CLI flags.
type Config struct {
	// Backup behavior
	BackupDir string `json:"backup_dir,omitempty"` // Directory for backup copies (default: archive's own directory)
	NoBackup  bool   `json:"no_backup,omitempty"`  // Skip the backup copy before rewriting

	// Behavior
	Verbose     bool `json:"verbose,omitempty"`     // Print detailed per-archive reports
	Concurrency int  `json:"concurrency,omitempty"` // Max archives processed in parallel

	// Services
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL for run history
	Port        int    `json:"port,omitempty"`         // HTTP API port for serve mode
}

// LoadConfig loads configuration from a JSON file. When the config schema
// can be resolved next to the working directory the raw JSON is validated
// against it first. Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if schemaPath := schemas.ResolveSchemaPath(configSchemaPath); schemaPath != "" {
		schema, err := os.ReadFile(schemaPath)
		if err == nil {
			if err := schemas.ValidateJSONString(string(schema), string(data)); err != nil {
				return nil, fmt.Errorf("config file %s failed schema validation: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("config error: 'concurrency' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	if c.BackupDir != "" {
		if _, err := os.Stat(c.BackupDir); os.IsNotExist(err) {
			return fmt.Errorf("config error: backup directory not found: %s", c.BackupDir)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.BackupDir == "" {
		result.BackupDir = defaults.BackupDir
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
