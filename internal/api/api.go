// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/slate/internal/config"
	"github.com/JaimeStill/slate/internal/infrastructure"
	"github.com/JaimeStill/slate/pkg/middleware"
	"github.com/JaimeStill/slate/pkg/module"
	"github.com/JaimeStill/slate/pkg/openapi"
	"github.com/JaimeStill/slate/pkg/routes"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	groups := registerRoutes(mux, domain, cfg, runtime)

	for _, pattern := range routes.Patterns(groups...) {
		runtime.Logger.Debug("route registered", "pattern", cfg.API.BasePath+" "+pattern)
	}

	spec := openapi.NewSpec(&cfg.API.OpenAPI, cfg.Version)
	spec.AddServer(cfg.API.BasePath)
	if err := routes.Document(spec, "", groups...); err != nil {
		return nil, fmt.Errorf("document routes: %w", err)
	}
	specBytes, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi: %w", err)
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(specBytes))

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.Recover(runtime.Logger))

	return m, nil
}
