package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/blog-post-pages/internal/app"
	"github.com/blog-post-pages/internal/config"
	"github.com/blog-post-pages/pkg/logger"
)

func main() {
	outDir := flag.String("out", "", "output directory (defaults to PRERENDER_OUTPUT_DIR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log := logger.New("info", "json")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *outDir != "" {
		cfg.Prerender.OutputDir = *outDir
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	application, err := app.Build(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := application.Generator.Run(ctx)
	closeErr := application.Close()
	if err != nil {
		log.Error().Err(err).Msg("Static generation failed")
		os.Exit(1)
	}
	if closeErr != nil {
		log.Warn().Err(closeErr).Msg("Failed to release resources")
	}

	log.Info().
		Str("out", cfg.Prerender.OutputDir).
		Int("slugs", result.Slugs).
		Int("generated", result.Generated).
		Int("not_found", result.NotFound).
		Dur("duration", result.Duration).
		Msg("Static generation completed")
}
