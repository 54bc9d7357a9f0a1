package prerender

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/blog-post-pages/internal/contentstore"
	"github.com/blog-post-pages/internal/render"
	"github.com/blog-post-pages/internal/service"
	"github.com/blog-post-pages/internal/validation"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Result summarizes one generation pass
type Result struct {
	Slugs     int           `json:"slugs"`
	Generated int           `json:"generated"`
	NotFound  int           `json:"not_found"`
	Duration  time.Duration `json:"duration"`
}

// Generator enumerates every slug and materializes its page
type Generator struct {
	paths       service.PathService
	posts       service.PostService
	renderer    *render.Renderer
	outDir      string
	concurrency int
	log         zerolog.Logger
}

// NewGenerator creates a generator. renderer and outDir are only needed by Run.
func NewGenerator(
	paths service.PathService,
	posts service.PostService,
	renderer *render.Renderer,
	outDir string,
	concurrency int,
	log zerolog.Logger,
) *Generator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Generator{
		paths:       paths,
		posts:       posts,
		renderer:    renderer,
		outDir:      outDir,
		concurrency: concurrency,
		log:         log.With().Str("component", "prerender").Logger(),
	}
}

// Run writes <outDir>/post/<slug>/index.html for every enumerated slug.
// Slugs that resolve to not found are skipped; any other failure aborts the
// whole generation.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	if g.renderer == nil || g.outDir == "" {
		return nil, errors.New("prerender: renderer and output directory are required")
	}
	return g.each(ctx, func(ctx context.Context, slug string) error {
		post, err := g.posts.Resolve(ctx, slug)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := g.renderer.RenderPost(&buf, post, nil); err != nil {
			return fmt.Errorf("render %s: %w", slug, err)
		}
		return writeFile(filepath.Join(g.outDir, "post", slug, "index.html"), buf.Bytes())
	})
}

// Warm resolves every enumerated slug so the page cache starts populated
func (g *Generator) Warm(ctx context.Context) (*Result, error) {
	return g.each(ctx, func(ctx context.Context, slug string) error {
		_, err := g.posts.Resolve(ctx, slug)
		return err
	})
}

func (g *Generator) each(ctx context.Context, fn func(ctx context.Context, slug string) error) (*Result, error) {
	start := time.Now()

	posts, err := g.paths.ListSlugs(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate slugs: %w", err)
	}

	g.log.Info().
		Int("slugs", len(posts)).
		Int("concurrency", g.concurrency).
		Msg("Generation started")

	var generated, notFound atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.concurrency)

	for _, post := range posts {
		slug := post.Slug.Current
		group.Go(func() error {
			if !validation.ValidSlug(slug) {
				g.log.Warn().Str("slug", slug).Msg("Skipping slug that cannot be a path")
				notFound.Add(1)
				return nil
			}

			err := fn(groupCtx, slug)
			switch {
			case errors.Is(err, contentstore.ErrNotFound):
				g.log.Debug().Str("slug", slug).Msg("Slug disappeared since enumeration")
				notFound.Add(1)
				return nil
			case err != nil:
				return fmt.Errorf("slug %s: %w", slug, err)
			}
			generated.Add(1)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		g.log.Error().Err(err).Msg("Generation failed")
		return nil, err
	}

	result := &Result{
		Slugs:     len(posts),
		Generated: int(generated.Load()),
		NotFound:  int(notFound.Load()),
		Duration:  time.Since(start),
	}
	g.log.Info().
		Int("generated", result.Generated).
		Int("not_found", result.NotFound).
		Dur("duration", result.Duration).
		Msg("Generation completed")
	return result, nil
}

// writeFile replaces path atomically so readers never see a partial page
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*.html")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
