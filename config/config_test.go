package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"EDITOR_ADDR", "EDITOR_STORE", "FIRESTORE_PROJECT", "EDITOR_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithoutFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
server:
  addr: ":9090"
  allowed_origins: ["https://app.example.com"]
editor:
  history_limit: 20
  commit_delay: 500ms
logging:
  level: debug
  color: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 20, cfg.Editor.HistoryLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Editor.CommitDelay)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Color)

	// Unset keys keep their defaults.
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Editor.AutosaveInterval)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EDITOR_ADDR", ":7000")
	t.Setenv("EDITOR_STORE", "Firestore")
	t.Setenv("FIRESTORE_PROJECT", "resumes-dev")
	t.Setenv("EDITOR_LOG_LEVEL", "warn")

	cfg, err := Load(writeFile(t, "server:\n  addr: \":9090\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, BackendFirestore, cfg.Store.Backend)
	assert.Equal(t, "resumes-dev", cfg.Store.FirestoreProject)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	_, err = Load(writeFile(t, "server: [not, a, map]\n"))
	assert.ErrorContains(t, err, "parse config")

	_, err = Load(writeFile(t, "store:\n  backend: postgres\n"))
	assert.ErrorContains(t, err, `unknown store backend "postgres"`)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"firestore without project", func(c *Config) { c.Store.Backend = BackendFirestore }, "firestore_project"},
		{"negative history", func(c *Config) { c.Editor.HistoryLimit = -1 }, "history_limit"},
		{"zero commit delay", func(c *Config) { c.Editor.CommitDelay = 0 }, "editor.commit_delay"},
		{"negative flush", func(c *Config) { c.Store.FlushInterval = -time.Second }, "store.flush_interval"},
		{"zero write timeout", func(c *Config) { c.Server.WriteTimeout = 0 }, "server.write_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
