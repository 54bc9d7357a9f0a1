package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blog-post-pages/internal/cache"
	"github.com/blog-post-pages/internal/config"
	"github.com/blog-post-pages/internal/contentstore"
	"github.com/blog-post-pages/internal/contentstore/sanity"
	"github.com/blog-post-pages/internal/database"
	"github.com/blog-post-pages/internal/prerender"
	"github.com/blog-post-pages/internal/render"
	"github.com/blog-post-pages/internal/repository"
	"github.com/blog-post-pages/internal/richtext"
	"github.com/blog-post-pages/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// App holds every long-lived component, wired from configuration
type App struct {
	Config    *config.Config
	Store     contentstore.Store
	Pages     *cache.PageCache
	Services  *service.Services
	Renderer  *render.Renderer
	Generator *prerender.Generator

	db    *database.DB
	redis *redis.Client
	log   zerolog.Logger
}

// Build constructs the content store, page cache, services and renderer
func Build(cfg *config.Config, log zerolog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	a := &App{Config: cfg, log: log}

	store, err := a.buildStore()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	backend, err := a.buildBackend()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Pages = cache.New(backend, cache.Policy{Window: cfg.Cache.Revalidate}, log,
		cache.WithRefreshTimeout(cfg.Cache.RefreshTimeout),
	)
	a.Services = service.NewServices(store, a.Pages, log)

	images := richtext.ImageURLBuilder{
		ProjectID: cfg.Content.ProjectID,
		Dataset:   cfg.Content.Dataset,
	}
	a.Renderer, err = render.New(images)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Generator = prerender.NewGenerator(
		a.Services.Paths,
		a.Services.Posts,
		a.Renderer,
		cfg.Prerender.OutputDir,
		cfg.Prerender.Concurrency,
		log,
	)

	log.Info().
		Str("backend", store.Name()).
		Bool("redis", a.redis != nil).
		Dur("revalidate", cfg.Cache.Revalidate).
		Msg("Application wired")

	return a, nil
}

func (a *App) buildStore() (contentstore.Store, error) {
	cfg := a.Config
	switch cfg.Content.Backend {
	case config.BackendPostgres:
		db, err := database.New(&cfg.Database, a.log)
		if err != nil {
			return nil, err
		}
		a.db = db
		if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
			return nil, err
		}
		return contentstore.NewPostgresStore(repository.New(db), a.log), nil

	case config.BackendSanity:
		if cfg.Content.Token == "" {
			a.log.Warn().Msg("SANITY_TOKEN is empty, comment submissions will be rejected by the content store")
		}
		return sanity.New(sanity.Config{
			ProjectID:  cfg.Content.ProjectID,
			Dataset:    cfg.Content.Dataset,
			APIVersion: cfg.Content.APIVersion,
			Token:      cfg.Content.Token,
			UseCDN:     cfg.Content.UseCDN,
			APIHost:    cfg.Content.APIHost,
			Timeout:    cfg.Content.Timeout,
		}, a.log)

	default:
		return nil, fmt.Errorf("unknown content backend %q", cfg.Content.Backend)
	}
}

func (a *App) buildBackend() (cache.Backend, error) {
	cfg := a.Config
	if !cfg.Redis.Enabled {
		return cache.NewMemoryBackend(cfg.Cache.MaxEntries)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	a.redis = client
	return cache.NewRedisBackend(client, cfg.Redis.Prefix, cfg.Cache.Retention, cfg.Cache.Revalidate), nil
}

// HealthCheck verifies the backing services that need a connection
func (a *App) HealthCheck(ctx context.Context) error {
	if a.db != nil {
		if err := a.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Close waits for background regenerations and releases connections
func (a *App) Close() error {
	if a.Pages != nil {
		a.Pages.Wait()
	}

	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
