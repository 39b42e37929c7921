// Package config loads the service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Server holds the HTTP listener settings.
type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Store selects and configures the session store backend.
type Store struct {
	// Backend is one of "memory", "file" or "redis".
	Backend string `yaml:"backend"`
	// Dir is the session directory for the file backend.
	Dir string `yaml:"dir"`
	// RedisAddr is the host:port for the redis backend.
	RedisAddr string `yaml:"redis_addr"`
	// RedisTTL expires idle sessions; zero keeps them forever.
	RedisTTL time.Duration `yaml:"redis_ttl"`
}

// Audit selects and configures the audit sink backend.
type Audit struct {
	// Backend is one of "memory", "file" or "sqlite".
	Backend string `yaml:"backend"`
	// Dir is the JSONL directory for the file backend.
	Dir string `yaml:"dir"`
	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`
}

// ModelConfig selects the language-model provider.
type ModelConfig struct {
	// Provider is one of "mock", "anthropic" or "openai".
	Provider string `yaml:"provider"`
	// Name overrides the provider's default model.
	Name string `yaml:"name"`
}

// Log holds logging settings.
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// Config is the root service configuration.
type Config struct {
	Server          Server      `yaml:"server"`
	Store           Store       `yaml:"store"`
	Audit           Audit       `yaml:"audit"`
	Model           ModelConfig `yaml:"model"`
	Log             Log         `yaml:"log"`
	DefaultWorkflow string      `yaml:"default_workflow"`
}

// Default returns the configuration used when no file or overrides are set.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Store:           Store{Backend: "memory", Dir: "./data/sessions", RedisAddr: "localhost:6379"},
		Audit:           Audit{Backend: "memory", Dir: "./data/audit", SQLitePath: "./data/audit.db"},
		Model:           ModelConfig{Provider: "mock"},
		Log:             Log{Level: "info", Format: "json"},
		DefaultWorkflow: "intake",
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays CRISPRFLOW_* environment variables.
func (c *Config) applyEnv() {
	c.Server.Addr = getEnv("CRISPRFLOW_ADDR", c.Server.Addr)
	c.Store.Backend = getEnv("CRISPRFLOW_STORE_BACKEND", c.Store.Backend)
	c.Store.Dir = getEnv("CRISPRFLOW_STORE_DIR", c.Store.Dir)
	c.Store.RedisAddr = getEnv("CRISPRFLOW_REDIS_ADDR", c.Store.RedisAddr)
	c.Store.RedisTTL = getEnvDuration("CRISPRFLOW_REDIS_TTL", c.Store.RedisTTL)
	c.Audit.Backend = getEnv("CRISPRFLOW_AUDIT_BACKEND", c.Audit.Backend)
	c.Audit.Dir = getEnv("CRISPRFLOW_AUDIT_DIR", c.Audit.Dir)
	c.Audit.SQLitePath = getEnv("CRISPRFLOW_AUDIT_SQLITE", c.Audit.SQLitePath)
	c.Model.Provider = getEnv("CRISPRFLOW_MODEL_PROVIDER", c.Model.Provider)
	c.Model.Name = getEnv("CRISPRFLOW_MODEL_NAME", c.Model.Name)
	c.Log.Level = getEnv("CRISPRFLOW_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("CRISPRFLOW_LOG_FORMAT", c.Log.Format)
	c.DefaultWorkflow = getEnv("CRISPRFLOW_DEFAULT_WORKFLOW", c.DefaultWorkflow)
}

// Validate rejects unknown backend and provider names early, before any
// component is wired.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Audit.Backend {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("unknown audit backend %q", c.Audit.Backend)
	}
	switch c.Model.Provider {
	case "mock", "anthropic", "openai":
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.DefaultWorkflow == "" {
		return fmt.Errorf("default_workflow must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
