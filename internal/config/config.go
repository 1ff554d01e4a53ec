// Package config loads slate's service configuration from config.toml, an
// optional config.<env>.toml overlay, and SLATE_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/slate/pkg/database"
	"github.com/JaimeStill/slate/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvSlateEnv       = "SLATE_ENV"
	EnvSlateVersion   = "SLATE_VERSION"
	EnvSlateLogLevel  = "SLATE_LOG_LEVEL"
	EnvSlateLogFormat = "SLATE_LOG_FORMAT"
)

var databaseEnv = &database.Env{
	Host:            "SLATE_DB_HOST",
	Port:            "SLATE_DB_PORT",
	Name:            "SLATE_DB_NAME",
	User:            "SLATE_DB_USER",
	Password:        "SLATE_DB_PASSWORD",
	SSLMode:         "SLATE_DB_SSL_MODE",
	MaxOpenConns:    "SLATE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "SLATE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "SLATE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "SLATE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "SLATE_STORAGE_PROVIDER",
	ContainerName:    "SLATE_STORAGE_CONTAINER_NAME",
	ConnectionString: "SLATE_STORAGE_CONNECTION_STRING",
}

// Config is the root configuration for the slate service.
type Config struct {
	Server    ServerConfig         `toml:"server"`
	Database  database.Config      `toml:"database"`
	Storage   storage.Config       `toml:"storage"`
	API       APIConfig            `toml:"api"`
	Agent     gaconfig.AgentConfig `toml:"agent"`
	Analysis  AnalysisConfig       `toml:"analysis"`
	LogLevel  string               `toml:"log_level"`
	LogFormat string               `toml:"log_format"`
	Version   string               `toml:"version"`
}

// Env returns the SLATE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvSlateEnv); env != "" {
		return env
	}
	return "local"
}

// Level returns LogLevel as a slog.Level.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. Without a config.toml, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.LogFormat != "" {
		c.LogFormat = overlay.LogFormat
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Agent.Merge(&overlay.Agent)
	c.Analysis.Merge(&overlay.Analysis)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := FinalizeAgent(&c.Agent); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Analysis.Finalize(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvSlateLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvSlateLogFormat); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv(EnvSlateVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q: want text or json", c.LogFormat)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvSlateEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
