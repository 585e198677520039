package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile_YAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.yaml", `
bridge:
  base_url: http://localhost:8787
  timeout_seconds: 10
store:
  db_path: /var/lib/mt5recon/trades.db
detection:
  min_age_seconds: 300
logging:
  level: debug
  format: text
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8787", cfg.Bridge.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Bridge.Timeout())
	assert.Equal(t, "/var/lib/mt5recon/trades.db", cfg.Store.DBPath)
	assert.Equal(t, 5*time.Minute, cfg.Detection.MinAge())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile_JSON(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.json", `{
  "bridge": {"base_url": "http://127.0.0.1:9000"},
  "store": {"db_path": "./trades.db"}
}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.Bridge.BaseURL)
}

func TestLoadFromFile_DefaultsApplied(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.yaml", `
bridge:
  base_url: http://localhost:8787
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 20*time.Second, cfg.Bridge.Timeout())
	assert.Equal(t, 180*time.Second, cfg.Detection.MinAge())
	assert.Equal(t, "./mt5recon.sqlite", cfg.Store.DBPath)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing bridge url",
			mutate:  func(c *Config) { c.Bridge.BaseURL = "" },
			wantErr: "bridge.base_url is required",
		},
		{
			name:    "bad bridge url scheme",
			mutate:  func(c *Config) { c.Bridge.BaseURL = "localhost:8787" },
			wantErr: "http(s)",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Bridge.TimeoutSeconds = -1 },
			wantErr: "timeout_seconds",
		},
		{
			name:    "missing db path",
			mutate:  func(c *Config) { c.Store.DBPath = "" },
			wantErr: "store.db_path is required",
		},
		{
			name:    "negative min age",
			mutate:  func(c *Config) { c.Detection.MinAgeSeconds = -10 },
			wantErr: "min_age_seconds",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Bridge.BaseURL = "http://localhost:8787"
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidate_ZeroMinAgeAllowed(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Bridge.BaseURL = "http://localhost:8787"
	cfg.Detection.MinAgeSeconds = 0

	assert.NoError(t, cfg.Validate())
}
