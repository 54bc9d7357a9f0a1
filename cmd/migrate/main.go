package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/blog-post-pages/internal/config"
	"github.com/blog-post-pages/internal/contentstore"
	"github.com/blog-post-pages/internal/database"
	"github.com/blog-post-pages/internal/models"
	"github.com/blog-post-pages/internal/repository"
	"github.com/blog-post-pages/pkg/logger"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	seed := flag.String("seed", "", "JSON file of exported posts to import after migrating up")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log := logger.New("info", "json")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	switch *direction {
	case "up":
		err = db.RunMigrations(cfg.Database.MigrationsPath)
	case "down":
		err = db.MigrateDown(cfg.Database.MigrationsPath)
	default:
		log.Fatal().Str("direction", *direction).Msg("Direction must be up or down")
	}
	if err != nil {
		log.Fatal().Err(err).Str("direction", *direction).Msg("Migration failed")
	}

	log.Info().Str("direction", *direction).Msg("Migrations applied")

	if *seed == "" || *direction != "up" {
		return
	}

	data, err := os.ReadFile(*seed)
	if err != nil {
		log.Fatal().Err(err).Str("file", *seed).Msg("Failed to read fixtures")
	}
	var posts []models.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		log.Fatal().Err(err).Str("file", *seed).Msg("Failed to decode fixtures")
	}

	store := contentstore.NewPostgresStore(repository.New(db), log)
	if _, err := store.Import(context.Background(), posts); err != nil {
		log.Fatal().Err(err).Msg("Fixture import failed")
	}
}
