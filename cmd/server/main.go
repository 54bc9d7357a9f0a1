package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/blog-post-pages/internal/api"
	"github.com/blog-post-pages/internal/app"
	"github.com/blog-post-pages/internal/config"
	"github.com/blog-post-pages/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log := logger.New("info", "json")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting blog post page server...")

	// Wire store, cache and services
	application, err := app.Build(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	// Warm the page cache so first visitors get cached pages
	if cfg.Prerender.OnStart {
		go func() {
			result, err := application.Generator.Warm(context.Background())
			if err != nil {
				log.Error().Err(err).Msg("Cache warm-up failed, pages will be resolved on demand")
				return
			}
			log.Info().
				Int("slugs", result.Slugs).
				Int("warmed", result.Generated).
				Dur("duration", result.Duration).
				Msg("Page cache warmed")
		}()
	}

	// Initialize router
	router := api.NewRouter(
		application.Services,
		application.Renderer,
		application.Store,
		cfg,
		log,
		api.WithHealthCheck(application.HealthCheck),
	)

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
		log.Info().
			Str("port", cfg.Server.Port).
			Str("backend", application.Store.Name()).
			Msg("Server listening")
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
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
