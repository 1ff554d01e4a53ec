// Package infrastructure assembles the shared systems every domain module
// needs: logging, lifecycle coordination, the database pool, blob storage,
// and the analysis runtime.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/slate/internal/config"
	"github.com/JaimeStill/slate/internal/workflow"
	"github.com/JaimeStill/slate/pkg/database"
	"github.com/JaimeStill/slate/pkg/lifecycle"
	"github.com/JaimeStill/slate/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Analysis  *workflow.Runtime
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with log output sent to w.
func NewWithWriter(cfg *config.Config, w io.Writer) (*Infrastructure, error) {
	logger := NewLogger(cfg, w)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	analysis, err := NewAnalysis(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("analysis init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Analysis:  analysis,
	}, nil
}

// NewLogger builds the process logger from the configured level and format.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// The database and storage also become readiness checks.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	i.Lifecycle.AddCheck("database", i.Database)

	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	i.Lifecycle.AddCheck("storage", i.Storage)
	return nil
}
