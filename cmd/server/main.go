package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/slate/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run loads configuration, serves until SIGINT or SIGTERM, and then drains
// every registered shutdown hook.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	srv, err := newServer(cfg)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	if err := srv.start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	srv.logger().Info("signal received, shutting down")
	if err := srv.infra.Lifecycle.Shutdown(cfg.Server.ShutdownTimeoutDuration()); err != nil {
		return fmt.Errorf("shutdown incomplete: %w", err)
	}
	srv.logger().Info("slate stopped")
	return nil
}
