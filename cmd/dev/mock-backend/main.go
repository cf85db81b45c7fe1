package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/garnizeh/fieldops/api"
	"github.com/garnizeh/fieldops/internal/config"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	configPath := pflag.String("config", "", "Path to config YAML file")
	addr := pflag.String("addr", "", "listen address (overrides dev.addr)")
	noSeed := pflag.Bool("no-seed", false, "start with empty collections")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := cfg.Log.Logger(os.Stderr)
	api.SetLogger(logger)
	if *addr != "" {
		cfg.Dev.Addr = *addr
	}

	logger.Info("starting fieldops dev backend", "version", version, "buildTime", buildTime)

	store := api.NewMemStore()
	if !*noSeed {
		if err := api.Seed(store); err != nil {
			logger.Error("failed to seed store", "err", err)
			os.Exit(1)
		}
		logger.Info("demo accounts seeded", "admin", api.DemoAdminEmail, "engineer", api.DemoEngineerEmail, "user", api.DemoUserEmail, "password", api.DemoPassword)
	}

	handler, err := api.SetupRoutes(cfg, version, buildTime, store)
	if err != nil {
		logger.Error("failed to build routes", "err", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         cfg.Dev.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Backend.Timeout,
		WriteTimeout: cfg.Backend.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.Dev.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}
