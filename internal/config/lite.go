// This file contains the lightweight configuration for standalone
// operation: the lite server runs from an embedded SQLite file with no
// PostgreSQL, Redis, or webhook endpoint.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LiteConfig is a simplified configuration for standalone operation.
// It requires no external services and uses sensible defaults.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for the SQLite database and exports

	// HTTP settings
	HTTPPort int

	// Conversation settings
	IdleTTL time.Duration // How long abandoned conversations survive

	// Share keys, comma separated as key=doctorID pairs
	ShareKeys string

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".assessment-server")

	return &LiteConfig{
		DataDir:   dataDir,
		HTTPPort:  8080,
		IdleTTL:   time.Hour,
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("PATHWAY_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	if v := os.Getenv("PATHWAY_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	if v := os.Getenv("PATHWAY_IDLE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.IdleTTL = d
		}
	}

	cfg.ShareKeys = os.Getenv("PATHWAY_SHARE_KEYS")

	if v := os.Getenv("PATHWAY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PATHWAY_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// LeadDBPath returns the path to the lead SQLite database.
func (c *LiteConfig) LeadDBPath() string {
	return filepath.Join(c.DataDir, "leads.db")
}

// ExportDir returns the directory for JSON exports.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.ExportDir(), 0755)
}

// ParseShareKeys decodes the PATHWAY_SHARE_KEYS value into a key map.
// The format is "key1=doctorA,key2=doctorB"; malformed pairs are
// skipped.
func (c *LiteConfig) ParseShareKeys() map[string]string {
	keys := make(map[string]string)
	if c.ShareKeys == "" {
		return keys
	}
	for _, pair := range strings.Split(c.ShareKeys, ",") {
		key, doctorID, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		doctorID = strings.TrimSpace(doctorID)
		if key != "" && doctorID != "" {
			keys[key] = doctorID
		}
	}
	return keys
}
