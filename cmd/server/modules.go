package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/JaimeStill/slate/internal/api"
	"github.com/JaimeStill/slate/internal/config"
	"github.com/JaimeStill/slate/internal/infrastructure"
	"github.com/JaimeStill/slate/pkg/module"
)

const readyzTimeout = 2 * time.Second

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{
		API: apiModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

type readiness struct {
	Status string          `json:"status"`
	Checks map[string]bool `json:"checks"`
	Error  string          `json:"error,omitempty"`
}

func buildRouter(infra *infrastructure.Infrastructure, version string) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		res := readiness{Status: "ready", Checks: infra.Lifecycle.Checks()}

		if !infra.Lifecycle.Ready() {
			res.Status = "not ready"
			writeJSON(w, http.StatusServiceUnavailable, res)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
		defer cancel()
		if err := infra.Database.Ping(ctx); err != nil {
			res.Status = "not ready"
			res.Error = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, res)
			return
		}

		writeJSON(w, http.StatusOK, res)
	})

	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
