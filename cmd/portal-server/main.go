package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pv/foundry-portal/internal/api"
	"github.com/pv/foundry-portal/internal/config"
	"github.com/pv/foundry-portal/internal/logger"
	"github.com/pv/foundry-portal/internal/poller"
	"github.com/pv/foundry-portal/internal/probe"
	"github.com/pv/foundry-portal/internal/storage"
)

const (
	probeTimeout   = 10 * time.Second
	sessionTimeout = 12 * time.Hour
)

func main() {
	// A missing .env is fine; flags and real env still apply.
	godotenv.Load()

	cfg := config.Parse()
	logger.Init(cfg.LogFormat, cfg.Level())

	store, err := config.OpenStore(cfg.PortalPath)
	if err != nil {
		logger.Error("Failed to load portal config", "path", cfg.PortalPath, "error", err)
		os.Exit(1)
	}

	var history storage.Storage
	switch cfg.Storage {
	case config.StorageSQLite:
		history, err = storage.NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			logger.Error("Failed to open SQLite storage", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		logger.Info("Using SQLite storage", "path", cfg.SQLitePath)
	default:
		history = storage.NewMemoryStorage()
		logger.Info("Using in-memory storage")
	}
	defer history.Close()

	prober := probe.New(probeTimeout)
	p := poller.New(store, history, prober, cfg.PollInterval, cfg.HistoryTTL)

	sessions := api.NewSessionManager(sessionTimeout)
	defer sessions.Stop()

	handlers := api.NewHandlers(store, p, history, sessions)
	server := api.NewServer(handlers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go p.Run(ctx)

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server,
	}

	go func() {
		logger.Info("Starting portal server",
			"addr", addr,
			"config", cfg.PortalPath,
			"poll_interval", cfg.PollInterval,
			"history_ttl", cfg.HistoryTTL,
			"configured", store.IsConfigured())

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	cancel()

	if err := httpServer.Shutdown(context.Background()); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
