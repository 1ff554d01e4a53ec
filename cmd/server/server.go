package main

import (
	"log/slog"

	"github.com/JaimeStill/slate/internal/config"
	"github.com/JaimeStill/slate/internal/infrastructure"
)

// server ties the shared infrastructure to the mounted domain modules and
// the HTTP listener that fronts them.
type server struct {
	infra *infrastructure.Infrastructure
	http  *httpServer
}

func newServer(cfg *config.Config) (*server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra, cfg.Version)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"version", cfg.Version,
		"env", cfg.Env(),
		"verify", cfg.Analysis.Verify,
		"prefixes", router.Prefixes(),
	)

	return &server{
		infra: infra,
		http:  newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

func (s *server) logger() *slog.Logger {
	return s.infra.Logger
}

// start runs infrastructure startup hooks and then binds the listener.
// Readiness is reported once every startup hook has returned.
func (s *server) start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.listen(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.logger().Info("startup complete", "addr", s.http.addr, "checks", s.infra.Lifecycle.Checks())
	}()

	return nil
}
