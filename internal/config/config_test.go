package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.Equal(t, 5, cfg.Planning.MaxWeeklyOverrides)
	assert.Equal(t, 2, cfg.Planning.PlanningHour)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metaconscious.yaml")
	data := []byte(`
server:
  port: 9090
planning:
  max_weekly_overrides: 3
  planning_hour: 4
database:
  busy_timeout: 5s
llm:
  model: mixtral-8x7b
  timeout: 90s
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Planning.MaxWeeklyOverrides)
	assert.Equal(t, 4, cfg.Planning.PlanningHour)
	assert.Equal(t, "mixtral-8x7b", cfg.LLM.Model)
	assert.Equal(t, 5*time.Second, cfg.Database.BusyTimeout.Std())
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout.Std())
	// Untouched sections keep defaults.
	assert.Equal(t, 20, cfg.Database.MaxConnections)
	assert.Equal(t, 30*time.Second, cfg.Database.ConnMaxIdleTime.Std())
}

func TestDurationRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metaconscious.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  timeout: soon\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sekrit")
	t.Setenv("MAX_WEEKLY_OVERRIDES", "2")
	t.Setenv("PLANNING_HOUR", "23")
	t.Setenv("PORT", "3000")
	t.Setenv("DATABASE_PATH", "/tmp/test.db")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sekrit", cfg.LLM.APIKey)
	assert.Equal(t, 2, cfg.Planning.MaxWeeklyOverrides)
	assert.Equal(t, 23, cfg.Planning.PlanningHour)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"hour too high", func(c *Config) { c.Planning.PlanningHour = 24 }},
		{"hour negative", func(c *Config) { c.Planning.PlanningHour = -1 }},
		{"negative overrides", func(c *Config) { c.Planning.MaxWeeklyOverrides = -1 }},
		{"zero connections", func(c *Config) { c.Database.MaxConnections = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metaconscious.yaml")
	require.NoError(t, os.WriteFile(path, []byte("planning:\n  max_weekly_overrides: 5\n"), 0o644))

	reloaded := make(chan *Config, 1)
	w := NewWatcher(path, func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})
	require.NoError(t, w.Start())
	require.NoError(t, w.Start()) // idempotent
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("planning:\n  max_weekly_overrides: 7\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 7, cfg.Planning.MaxWeeklyOverrides)
	case <-time.After(5 * time.Second):
		t.Fatal("config reload never fired")
	}
}
