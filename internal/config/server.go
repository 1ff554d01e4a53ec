package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost            = "SLATE_SERVER_HOST"
	EnvServerPort            = "SLATE_SERVER_PORT"
	EnvServerReadTimeout     = "SLATE_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout    = "SLATE_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout     = "SLATE_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout = "SLATE_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds HTTP server parameters. WriteTimeout bounds a
// synchronous breakdown run, so it is longer than the read side.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	IdleTimeout     string `toml:"idle_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ReadTimeoutDuration returns ReadTimeout as a time.Duration.
func (c *ServerConfig) ReadTimeoutDuration() time.Duration { return mustDuration(c.ReadTimeout) }

// WriteTimeoutDuration returns WriteTimeout as a time.Duration.
func (c *ServerConfig) WriteTimeoutDuration() time.Duration { return mustDuration(c.WriteTimeout) }

// IdleTimeoutDuration returns IdleTimeout as a time.Duration.
func (c *ServerConfig) IdleTimeoutDuration() time.Duration { return mustDuration(c.IdleTimeout) }

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	for dst, v := range c.stringFields(overlay) {
		if v != "" {
			*dst = v
		}
	}
}

// stringFields pairs each string field of c with the same field of other.
func (c *ServerConfig) stringFields(other *ServerConfig) map[*string]string {
	return map[*string]string{
		&c.Host:            other.Host,
		&c.ReadTimeout:     other.ReadTimeout,
		&c.WriteTimeout:    other.WriteTimeout,
		&c.IdleTimeout:     other.IdleTimeout,
		&c.ShutdownTimeout: other.ShutdownTimeout,
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	defaults := &ServerConfig{
		Host:            "0.0.0.0",
		ReadTimeout:     "1m",
		WriteTimeout:    "10m",
		IdleTimeout:     "2m",
		ShutdownTimeout: "30s",
	}
	for dst, v := range c.stringFields(defaults) {
		if *dst == "" {
			*dst = v
		}
	}
}

func (c *ServerConfig) loadEnv() {
	for name, dst := range map[string]*string{
		EnvServerHost:            &c.Host,
		EnvServerReadTimeout:     &c.ReadTimeout,
		EnvServerWriteTimeout:    &c.WriteTimeout,
		EnvServerIdleTimeout:     &c.IdleTimeout,
		EnvServerShutdownTimeout: &c.ShutdownTimeout,
	} {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	if port, err := strconv.Atoi(os.Getenv(EnvServerPort)); err == nil {
		c.Port = port
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, field := range []struct{ name, value string }{
		{"read_timeout", c.ReadTimeout},
		{"write_timeout", c.WriteTimeout},
		{"idle_timeout", c.IdleTimeout},
		{"shutdown_timeout", c.ShutdownTimeout},
	} {
		if d, err := time.ParseDuration(field.value); err != nil {
			return fmt.Errorf("invalid %s: %w", field.name, err)
		} else if d <= 0 {
			return fmt.Errorf("invalid %s: must be positive", field.name)
		}
	}
	return nil
}

// mustDuration parses a duration Finalize has already validated.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
