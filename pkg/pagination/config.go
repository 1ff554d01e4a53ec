// Package pagination carries page requests from HTTP queries and bodies to
// repositories and shapes the paged responses.
package pagination

import (
	"errors"
	"os"
	"strconv"
)

// Config bounds page sizes.
type Config struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
}

// ConfigEnv maps environment variable names for pagination configuration.
type ConfigEnv struct {
	DefaultPageSize string
	MaxPageSize     string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}
	if env != nil {
		envInt(env.DefaultPageSize, &c.DefaultPageSize)
		envInt(env.MaxPageSize, &c.MaxPageSize)
	}
	return c.validate()
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.DefaultPageSize != 0 {
		c.DefaultPageSize = overlay.DefaultPageSize
	}
	if overlay.MaxPageSize != 0 {
		c.MaxPageSize = overlay.MaxPageSize
	}
}

func envInt(name string, dst *int) {
	if name == "" {
		return
	}
	if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
		*dst = n
	}
}

func (c *Config) validate() error {
	var errs []error
	if c.DefaultPageSize < 1 {
		errs = append(errs, errors.New("default_page_size must be positive"))
	}
	if c.MaxPageSize < 1 {
		errs = append(errs, errors.New("max_page_size must be positive"))
	}
	if c.DefaultPageSize > c.MaxPageSize {
		errs = append(errs, errors.New("default_page_size cannot exceed max_page_size"))
	}
	return errors.Join(errs...)
}
