package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nusantara-energy/portfolio-engine/internal/api"
	"github.com/nusantara-energy/portfolio-engine/internal/cache"
	"github.com/nusantara-energy/portfolio-engine/internal/config"
	"github.com/nusantara-energy/portfolio-engine/internal/filter"
	"github.com/nusantara-energy/portfolio-engine/internal/portfolio"
	"github.com/nusantara-energy/portfolio-engine/internal/refresh"
	"github.com/nusantara-energy/portfolio-engine/internal/seed"
	"github.com/nusantara-energy/portfolio-engine/internal/storage"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting portfolio-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"driver", cfg.Storage.Driver,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Initialize repository
	var repo storage.Repository
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		slog.Info("running database migrations", "dir", cfg.Storage.MigrationsDir)
		if err := storage.MigrateFromDSN(initCtx, cfg.Storage.DSN, cfg.Storage.MigrationsDir); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		pg, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
			DSN: cfg.Storage.DSN,
		})
		if err != nil {
			slog.Error("failed to create database repository", "error", err)
			os.Exit(1)
		}
		slog.Info("database connected successfully")
		repo = pg
	default:
		repo = storage.NewMemoryRepository()
	}

	// Initialize summary cache when Redis is configured
	var summaryCache *cache.SummaryCache
	if cfg.Redis.Address != "" {
		summaryCache, err = cache.NewSummaryCache(initCtx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.CacheTTL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		slog.Info("summary cache connected", "address", cfg.Redis.Address)
	} else {
		slog.Info("redis not configured, summary caching disabled")
	}

	// Seed the repository
	if cfg.Seed.Dir != "" {
		if _, err := os.Stat(cfg.Seed.Dir); err == nil {
			loader := seed.NewLoader(repo)
			if err := loader.LoadFromDir(initCtx, cfg.Seed.Dir); err != nil {
				slog.Warn("failed to load seed projects", "dir", cfg.Seed.Dir, "error", err)
			}
		}
	}

	// Initialize portfolio manager
	filters := filter.NewEngine(filter.Bands{
		SmallMax: cfg.Budget.SmallMax,
		LargeMin: cfg.Budget.LargeMin,
	})
	manager := portfolio.NewManager(repo, summaryCache, filters)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start summary refresh worker
	refresher := refresh.NewRefresher(manager, cfg.Refresh.Interval)
	refresher.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(manager)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Close repository and cache connections
	if err := manager.Close(); err != nil {
		slog.Error("manager close error", "error", err)
	}

	slog.Info("portfolio-engine stopped")
}
