package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blog-post-pages/internal/contentstore"
	"github.com/blog-post-pages/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ResolveFunc computes a fresh Post for slug
type ResolveFunc func(ctx context.Context, slug string) (*models.Post, error)

// Stats is a snapshot of cache activity
type Stats struct {
	Hits          int64 `json:"hits"`
	StaleHits     int64 `json:"stale_hits"`
	Misses        int64 `json:"misses"`
	Regenerations int64 `json:"regenerations"`
	Failures      int64 `json:"failures"`
}

// PageCache applies stale-while-revalidate to per-slug resolutions.
//
// A fresh entry is served as is. A stale entry is served immediately while a
// single background regeneration runs for that slug. A missing entry, or an
// expired not-found entry, is resolved synchronously, with concurrent callers
// sharing one resolution. A failed regeneration never replaces a stored entry.
type PageCache struct {
	backend        Backend
	policy         Policy
	refreshTimeout time.Duration
	now            func() time.Time
	log            zerolog.Logger

	group singleflight.Group
	wg    sync.WaitGroup

	hits          atomic.Int64
	staleHits     atomic.Int64
	misses        atomic.Int64
	regenerations atomic.Int64
	failures      atomic.Int64
}

// Option customizes a PageCache
type Option func(*PageCache)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(c *PageCache) {
		c.now = now
	}
}

// WithRefreshTimeout bounds each regeneration
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *PageCache) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

// New creates a page cache over backend
func New(backend Backend, policy Policy, log zerolog.Logger, opts ...Option) *PageCache {
	c := &PageCache{
		backend:        backend,
		policy:         policy,
		refreshTimeout: 30 * time.Second,
		now:            time.Now,
		log:            log.With().Str("component", "page_cache").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the Post for slug, or contentstore.ErrNotFound
func (c *PageCache) Get(ctx context.Context, slug string, resolve ResolveFunc) (*models.Post, error) {
	if entry, ok := c.load(ctx, slug); ok {
		if !c.policy.IsStale(entry, c.now()) {
			c.hits.Add(1)
			return entry.result()
		}

		if entry.NotFound {
			c.misses.Add(1)
			return c.resolveNow(ctx, slug, resolve)
		}

		c.staleHits.Add(1)
		c.log.Debug().
			Str("slug", slug).
			Time("computed_at", entry.ComputedAt).
			Msg("Serving stale entry, regenerating in background")
		c.revalidate(ctx, slug, resolve)
		return entry.result()
	}

	c.misses.Add(1)
	return c.resolveNow(ctx, slug, resolve)
}

// resolveNow blocks on a shared regeneration for slug
func (c *PageCache) resolveNow(ctx context.Context, slug string, resolve ResolveFunc) (*models.Post, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(slug, func() (any, error) {
		return c.regenerate(detached, slug, resolve)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Entry).result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stats returns a snapshot of the counters
func (c *PageCache) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		StaleHits:     c.staleHits.Load(),
		Misses:        c.misses.Load(),
		Regenerations: c.regenerations.Load(),
		Failures:      c.failures.Load(),
	}
}

// Wait blocks until every background regeneration has finished
func (c *PageCache) Wait() {
	c.wg.Wait()
}

func (c *PageCache) revalidate(ctx context.Context, slug string, resolve ResolveFunc) {
	detached := context.WithoutCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		_, err, _ := c.group.Do(slug, func() (any, error) {
			return c.regenerate(detached, slug, resolve)
		})
		if err != nil {
			c.log.Error().
				Err(err).
				Str("slug", slug).
				Msg("Background regeneration failed, keeping previous entry")
		}
	}()
}

// regenerate resolves slug and stores the outcome. It runs inside a
// singleflight call, so at most one regeneration per slug is in progress.
func (c *PageCache) regenerate(ctx context.Context, slug string, resolve ResolveFunc) (*Entry, error) {
	// Another flight may have refreshed the entry since the caller looked
	if current, ok := c.load(ctx, slug); ok && !c.policy.IsStale(current, c.now()) {
		return current, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.refreshTimeout)
	defer cancel()

	c.regenerations.Add(1)
	post, err := resolve(ctx, slug)

	entry := &Entry{ComputedAt: c.now()}
	switch {
	case errors.Is(err, contentstore.ErrNotFound):
		entry.NotFound = true
	case err != nil:
		c.failures.Add(1)
		return nil, err
	default:
		entry.Post = post
	}

	if err := c.backend.Store(ctx, slug, entry); err != nil {
		c.log.Warn().Err(err).Str("slug", slug).Msg("Failed to store cache entry")
	}

	c.log.Debug().
		Str("slug", slug).
		Bool("not_found", entry.NotFound).
		Msg("Entry regenerated")

	return entry, nil
}

func (c *PageCache) load(ctx context.Context, slug string) (*Entry, bool) {
	entry, ok, err := c.backend.Load(ctx, slug)
	if err != nil {
		c.log.Warn().Err(err).Str("slug", slug).Msg("Failed to load cache entry, treating as miss")
		return nil, false
	}
	return entry, ok && entry != nil
}
