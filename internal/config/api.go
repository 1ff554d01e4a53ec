package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/slate/pkg/formatting"
	"github.com/JaimeStill/slate/pkg/middleware"
	"github.com/JaimeStill/slate/pkg/openapi"
	"github.com/JaimeStill/slate/pkg/pagination"
)

const (
	EnvAPIBasePath      = "SLATE_API_BASE_PATH"
	EnvAPIMaxUploadSize = "SLATE_API_MAX_UPLOAD_SIZE"

	defaultMaxUploadSize = 25 * 1024 * 1024
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "SLATE_CORS_ENABLED",
	Origins:          "SLATE_CORS_ORIGINS",
	AllowedMethods:   "SLATE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "SLATE_CORS_ALLOWED_HEADERS",
	AllowCredentials: "SLATE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "SLATE_CORS_MAX_AGE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "SLATE_OPENAPI_TITLE",
	Description: "SLATE_OPENAPI_DESCRIPTION",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "SLATE_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "SLATE_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, upload limits, CORS, pagination, and the
// published OpenAPI metadata.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes. Finalize rejects
// unparseable sizes, so the fallback only applies to unfinalized configs.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return defaultMaxUploadSize
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "25MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
}
