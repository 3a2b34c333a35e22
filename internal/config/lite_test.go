package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, time.Hour, cfg.IdleTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)
	defer clearEnvVars(t)

	os.Setenv("PATHWAY_DATA_DIR", "/tmp/test-pathway")
	os.Setenv("PATHWAY_HTTP_PORT", "9090")
	os.Setenv("PATHWAY_IDLE_TTL", "30m")
	os.Setenv("PATHWAY_SHARE_KEYS", "k1=dr-a, k2=dr-b")
	os.Setenv("PATHWAY_LOG_LEVEL", "debug")

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/test-pathway", cfg.DataDir)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 30*time.Minute, cfg.IdleTTL)
	assert.Equal(t, "debug", cfg.LogLevel)

	keys := cfg.ParseShareKeys()
	assert.Equal(t, map[string]string{"k1": "dr-a", "k2": "dr-b"}, keys)
}

func TestLoadLiteConfig_IgnoresInvalidValues(t *testing.T) {
	clearEnvVars(t)
	defer clearEnvVars(t)

	os.Setenv("PATHWAY_HTTP_PORT", "not-a-port")
	os.Setenv("PATHWAY_IDLE_TTL", "soon")

	cfg := LoadLiteConfig()

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, time.Hour, cfg.IdleTTL)
}

func TestLiteConfig_Paths(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.assessment-server"}

	assert.Equal(t, "/home/user/.assessment-server/leads.db", cfg.LeadDBPath())
	assert.Equal(t, "/home/user/.assessment-server/exports", cfg.ExportDir())
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	cfg := &LiteConfig{DataDir: filepath.Join(tmpDir, "pathway")}

	err = cfg.EnsureDataDir()
	require.NoError(t, err)

	_, err = os.Stat(cfg.DataDir)
	assert.NoError(t, err)
	_, err = os.Stat(cfg.ExportDir())
	assert.NoError(t, err)
}

func TestParseShareKeys_MalformedPairs(t *testing.T) {
	cfg := &LiteConfig{ShareKeys: "good=dr-a,bad-pair,=dr-b,empty=,also=dr-c"}

	keys := cfg.ParseShareKeys()

	assert.Equal(t, map[string]string{"good": "dr-a", "also": "dr-c"}, keys)
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"PATHWAY_DATA_DIR",
		"PATHWAY_HTTP_PORT",
		"PATHWAY_IDLE_TTL",
		"PATHWAY_SHARE_KEYS",
		"PATHWAY_LOG_LEVEL",
		"PATHWAY_LOG_FORMAT",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
