// Package config loads the backend configuration from YAML with
// environment-variable overrides. Defaults are usable out of the box
// except for the LLM credential, which has no default on purpose.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes YAML strings like "2s" or
// "120s". Plain integers are taken as nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value")
	}
	*d = Duration(n)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all metaconscious configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Planning PlanningConfig `yaml:"planning"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig configures the SQLite store and its connection pool.
type DatabaseConfig struct {
	Path            string   `yaml:"path"`
	MaxConnections  int      `yaml:"max_connections"`
	BusyTimeout     Duration `yaml:"busy_timeout"`
	ConnMaxIdleTime Duration `yaml:"conn_max_idle_time"`
}

// LLMConfig configures the completion provider.
type LLMConfig struct {
	Provider string   `yaml:"provider"` // groq, openai-compatible
	APIKey   string   `yaml:"api_key"`
	Model    string   `yaml:"model"`
	BaseURL  string   `yaml:"base_url"`
	Timeout  Duration `yaml:"timeout"`
}

// PlanningConfig configures the planning policy knobs.
type PlanningConfig struct {
	MaxWeeklyOverrides int `yaml:"max_weekly_overrides"`
	PlanningHour       int `yaml:"planning_hour"` // 0-23, nightly trigger fires at HH:00
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Database: DatabaseConfig{
			Path:            "data/metaconscious.db",
			MaxConnections:  20,
			BusyTimeout:     Duration(2 * time.Second),
			ConnMaxIdleTime: Duration(30 * time.Second),
		},
		LLM: LLMConfig{
			Provider: "groq",
			Model:    "llama-3.3-70b-versatile",
			BaseURL:  "https://api.groq.com/openai/v1",
			Timeout:  Duration(120 * time.Second),
		},
		Planning: PlanningConfig{
			MaxWeeklyOverrides: 5,
			PlanningHour:       2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a YAML config file on top of the defaults, then applies
// environment overrides. A missing file is not an error; the defaults
// plus environment are a complete configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides layers process environment on top of file values.
// The credential is env-first so it never has to live in a config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("MAX_WEEKLY_OVERRIDES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Planning.MaxWeeklyOverrides = n
		}
	}
	if v := os.Getenv("PLANNING_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Planning.PlanningHour = n
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.Port = n
		}
	}
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects values the rest of the system cannot work with.
// The LLM credential is deliberately not required here: the backend runs
// without it and only plan generation fails, deterministically.
func (c *Config) Validate() error {
	if c.Planning.PlanningHour < 0 || c.Planning.PlanningHour > 23 {
		return fmt.Errorf("planning_hour must be in [0,23], got %d", c.Planning.PlanningHour)
	}
	if c.Planning.MaxWeeklyOverrides < 0 {
		return fmt.Errorf("max_weekly_overrides must be >= 0, got %d", c.Planning.MaxWeeklyOverrides)
	}
	if c.Database.MaxConnections <= 0 {
		return fmt.Errorf("database max_connections must be > 0, got %d", c.Database.MaxConnections)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
