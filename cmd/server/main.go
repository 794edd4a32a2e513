package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/script-select-api/internal/api"
	"github.com/script-select-api/internal/config"
	"github.com/script-select-api/internal/service"
	"github.com/script-select-api/internal/sheet"
	"github.com/script-select-api/internal/store"
	"github.com/script-select-api/pkg/logger"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	// Initialize logger
	log := logger.New()
	log.Info().Msg("Starting Script Select API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	clock := clockwork.NewRealClock()

	// Initialize stores and the sheet gateway
	stores := store.New()
	gateway := sheet.NewGateway(&cfg.Sources, clock, log)

	// Initialize services
	services := service.NewServices(stores, gateway, cfg, clock, log)

	// Load initial data: the live sheet when sources are configured, the
	// bundled seed otherwise
	if cfg.Sources.Configured() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Sources.FetchTimeout)
		if err := services.Sync.Refresh(ctx); err != nil {
			log.Warn().Err(err).Msg("Initial fetch failed, falling back to seed data")
			stores.Catalog.Replace(store.SeedScripts())
			stores.Roster.Replace(store.SeedUsers())
		}
		cancel()
	} else {
		log.Warn().Msg("No sheet sources configured, serving seed data")
		stores.Catalog.Replace(store.SeedScripts())
		stores.Roster.Replace(store.SeedUsers())
	}

	if cfg.Sources.ReadOnly() {
		log.Warn().Msg("No write endpoint configured, running read-only")
	}

	// Initialize router
	router := api.NewRouter(services, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
