package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/JaimeStill/slate/internal/config"
	"github.com/JaimeStill/slate/pkg/lifecycle"
)

type httpServer struct {
	srv   *http.Server
	log   *slog.Logger
	grace time.Duration

	// addr is the bound address once listen succeeds. It differs from the
	// configured address when port 0 is requested.
	addr string
}

func newHTTPServer(cfg *config.ServerConfig, handler http.Handler, logger *slog.Logger) *httpServer {
	log := logger.With("system", "http")
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
		IdleTimeout:  cfg.IdleTimeoutDuration(),
		ErrorLog:     slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}
	return &httpServer{srv: srv, log: log, grace: cfg.ShutdownTimeoutDuration()}
}

// listen binds synchronously so a bad address fails startup, then serves
// in the background. Request contexts derive from the lifecycle context and
// are cancelled when shutdown begins.
func (h *httpServer) listen(lc *lifecycle.Coordinator) error {
	ln, err := net.Listen("tcp", h.srv.Addr)
	if err != nil {
		return err
	}
	h.addr = ln.Addr().String()
	h.srv.BaseContext = func(net.Listener) context.Context { return lc.Context() }

	go h.serve(ln)
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		h.drain()
	})
	return nil
}

func (h *httpServer) serve(ln net.Listener) {
	h.log.Info("listening", "addr", h.addr)
	err := h.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return
	}
	h.log.Error("serve failed", "error", err)
}

func (h *httpServer) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), h.grace)
	defer cancel()

	h.log.Info("draining connections", "grace", h.grace)
	if err := h.srv.Shutdown(ctx); err != nil {
		h.log.Error("drain incomplete", "error", err)
		return
	}
	h.log.Info("http stopped")
}
