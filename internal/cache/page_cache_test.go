package cache_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blog-post-pages/internal/cache"
	"github.com/blog-post-pages/internal/contentstore"
	"github.com/blog-post-pages/internal/models"
	"github.com/rs/zerolog"
)

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingResolver returns a post titled with the call number
type countingResolver struct {
	calls atomic.Int64
	err   atomic.Pointer[error]
	gate  chan struct{}
}

func (r *countingResolver) resolve(ctx context.Context, slug string) (*models.Post, error) {
	n := r.calls.Add(1)
	if r.gate != nil {
		<-r.gate
	}
	if errp := r.err.Load(); errp != nil {
		return nil, *errp
	}
	return &models.Post{
		ID:    "post-" + slug,
		Title: "version " + string(rune('0'+n)),
		Slug:  models.Slug{Current: slug},
	}, nil
}

func (r *countingResolver) fail(err error) {
	r.err.Store(&err)
}

func newTestCache(t *testing.T, clock *fakeClock) *cache.PageCache {
	t.Helper()
	backend, err := cache.NewMemoryBackend(0)
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}
	c := cache.New(backend, cache.Policy{Window: time.Minute}, zerolog.Nop(), cache.WithClock(clock.Now))
	t.Cleanup(c.Wait)
	return c
}

func TestPolicy_IsStale(t *testing.T) {
	now := time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)
	policy := cache.Policy{Window: 60 * time.Second}

	tests := []struct {
		name     string
		entry    *cache.Entry
		expected bool
	}{
		{"nil entry", nil, true},
		{"just computed", &cache.Entry{ComputedAt: now}, false},
		{"inside window", &cache.Entry{ComputedAt: now.Add(-59 * time.Second)}, false},
		{"at window", &cache.Entry{ComputedAt: now.Add(-60 * time.Second)}, true},
		{"past window", &cache.Entry{ComputedAt: now.Add(-61 * time.Second)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.IsStale(tt.entry, now); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestPolicy_DefaultWindow(t *testing.T) {
	now := time.Now()
	var policy cache.Policy

	if policy.IsStale(&cache.Entry{ComputedAt: now.Add(-30 * time.Second)}, now) {
		t.Error("Entry inside the default window should be fresh")
	}
	if !policy.IsStale(&cache.Entry{ComputedAt: now.Add(-cache.DefaultWindow)}, now) {
		t.Error("Entry at the default window should be stale")
	}
}

func TestGet_MissThenHit(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)
	r := &countingResolver{}
	ctx := context.Background()

	first, err := c.Get(ctx, "hello-world", r.resolve)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	clock.Advance(30 * time.Second)
	second, err := c.Get(ctx, "hello-world", r.resolve)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if r.calls.Load() != 1 {
		t.Errorf("Expected 1 upstream call, got %d", r.calls.Load())
	}
	if first.Title != second.Title {
		t.Errorf("Expected identical results, got %q and %q", first.Title, second.Title)
	}

	stats := c.Stats()
	if stats.Misses != 1 || stats.Hits != 1 {
		t.Errorf("Expected 1 miss and 1 hit, got %+v", stats)
	}
}

func TestGet_StaleServesOldAndRegenerates(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)
	r := &countingResolver{}
	ctx := context.Background()

	if _, err := c.Get(ctx, "hello-world", r.resolve); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	clock.Advance(61 * time.Second)
	stale, err := c.Get(ctx, "hello-world", r.resolve)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if stale.Title != "version 1" {
		t.Errorf("Expected the stale version, got %q", stale.Title)
	}

	c.Wait()
	fresh, err := c.Get(ctx, "hello-world", r.resolve)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fresh.Title != "version 2" {
		t.Errorf("Expected the regenerated version, got %q", fresh.Title)
	}
	if r.calls.Load() != 2 {
		t.Errorf("Expected 2 upstream calls, got %d", r.calls.Load())
	}

	stats := c.Stats()
	if stats.StaleHits != 1 || stats.Regenerations != 2 {
		t.Errorf("Expected 1 stale hit and 2 regenerations, got %+v", stats)
	}
}

func TestGet_StaleTriggersSingleRegeneration(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)
	r := &countingResolver{}
	ctx := context.Background()

	if _, err := c.Get(ctx, "hello-world", r.resolve); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	r.gate = make(chan struct{})
	clock.Advance(2 * time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			post, err := c.Get(ctx, "hello-world", r.resolve)
			if err != nil || post.Title != "version 1" {
				t.Errorf("Expected stale version, got %v, %v", post, err)
			}
		}()
	}
	wg.Wait()
	close(r.gate)
	c.Wait()

	if got := r.calls.Load(); got != 2 {
		t.Errorf("Expected exactly 1 regeneration after the first resolve, got %d calls", got)
	}
}

func TestGet_ConcurrentMissesShareOneResolution(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)
	r := &countingResolver{gate: make(chan struct{})}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get(ctx, "hello-world", r.resolve); err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		}()
	}

	// Let the callers pile up on the flight before releasing it
	time.Sleep(50 * time.Millisecond)
	close(r.gate)
	wg.Wait()

	if got := r.calls.Load(); got != 1 {
		t.Errorf("Expected 1 upstream call, got %d", got)
	}
}

func TestGet_FailedRegenerationKeepsEntry(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)
	r := &countingResolver{}
	ctx := context.Background()

	if _, err := c.Get(ctx, "hello-world", r.resolve); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	r.fail(contentstore.Unavailable("resolve post", errors.New("connection refused")))
	clock.Advance(2 * time.Minute)

	for i := 0; i < 3; i++ {
		post, err := c.Get(ctx, "hello-world", r.resolve)
		if err != nil {
			t.Fatalf("Stale entry should still be served, got %v", err)
		}
		if post.Title != "version 1" {
			t.Errorf("Expected the previous version, got %q", post.Title)
		}
		c.Wait()
	}

	if c.Stats().Failures == 0 {
		t.Error("Expected failures to be counted")
	}
}

func TestGet_MissFailureIsReturned(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)
	r := &countingResolver{}
	r.fail(contentstore.Unavailable("resolve post", errors.New("connection refused")))

	_, err := c.Get(context.Background(), "hello-world", r.resolve)
	if !errors.Is(err, contentstore.ErrUpstreamUnavailable) {
		t.Errorf("Expected upstream error, got %v", err)
	}

	// Nothing was cached, so the next call resolves again
	r.err.Store(nil)
	if _, err := c.Get(context.Background(), "hello-world", r.resolve); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if got := r.calls.Load(); got != 2 {
		t.Errorf("Expected 2 upstream calls, got %d", got)
	}
}

func TestGet_NotFoundIsCached(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)
	r := &countingResolver{}
	r.fail(contentstore.ErrNotFound)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Get(ctx, "does-not-exist", r.resolve); !errors.Is(err, contentstore.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	}
	if got := r.calls.Load(); got != 1 {
		t.Errorf("Expected 1 upstream call inside the window, got %d", got)
	}

}

func TestGet_ExpiredNotFoundResolvesSynchronously(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)
	r := &countingResolver{}
	r.fail(contentstore.ErrNotFound)
	ctx := context.Background()

	if _, err := c.Get(ctx, "new-post", r.resolve); !errors.Is(err, contentstore.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	// The post is published after the miss
	r.err.Store(nil)
	clock.Advance(2 * time.Minute)

	post, err := c.Get(ctx, "new-post", r.resolve)
	if err != nil {
		t.Fatalf("Expected the new post on the first request after the window, got %v", err)
	}
	if post.Slug.Current != "new-post" {
		t.Errorf("Unexpected post %+v", post)
	}
	if got := r.calls.Load(); got != 2 {
		t.Errorf("Expected 2 upstream calls, got %d", got)
	}

	stats := c.Stats()
	if stats.Misses != 2 || stats.StaleHits != 0 {
		t.Errorf("Expected the expired marker to count as a miss, got %+v", stats)
	}
}

func TestGet_ExpiredNotFoundStillMissing(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)
	r := &countingResolver{}
	r.fail(contentstore.ErrNotFound)
	ctx := context.Background()

	c.Get(ctx, "does-not-exist", r.resolve)
	clock.Advance(2 * time.Minute)

	if _, err := c.Get(ctx, "does-not-exist", r.resolve); !errors.Is(err, contentstore.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if _, err := c.Get(ctx, "does-not-exist", r.resolve); !errors.Is(err, contentstore.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if got := r.calls.Load(); got != 2 {
		t.Errorf("Expected the renewed marker to be served, got %d upstream calls", got)
	}
}

func TestGet_UnknownSlugFloodKeepsPagesCached(t *testing.T) {
	clock := newFakeClock()
	backend, err := cache.NewMemoryBackend(100)
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}
	c := cache.New(backend, cache.Policy{Window: time.Minute}, zerolog.Nop(), cache.WithClock(clock.Now))
	t.Cleanup(c.Wait)
	ctx := context.Background()

	page := &countingResolver{}
	junk := &countingResolver{}
	junk.fail(contentstore.ErrNotFound)

	c.Get(ctx, "hello-world", page.resolve)
	for i := 0; i < 100; i++ {
		c.Get(ctx, fmt.Sprintf("junk-%d", i), junk.resolve)
	}
	c.Get(ctx, "hello-world", page.resolve)

	if got := page.calls.Load(); got != 1 {
		t.Errorf("Expected 1 upstream call for hello-world inside one window, got %d", got)
	}
}

func TestGet_SlugsAreIndependent(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)
	r := &countingResolver{}
	ctx := context.Background()

	c.Get(ctx, "a", r.resolve)
	clock.Advance(45 * time.Second)
	c.Get(ctx, "b", r.resolve)
	clock.Advance(30 * time.Second)

	// a is stale, b is still fresh
	c.Get(ctx, "b", r.resolve)
	if got := r.calls.Load(); got != 2 {
		t.Errorf("Fresh slug should not regenerate, got %d calls", got)
	}
	c.Get(ctx, "a", r.resolve)
	c.Wait()
	if got := r.calls.Load(); got != 3 {
		t.Errorf("Stale slug should regenerate once, got %d calls", got)
	}
}

func TestGet_CanceledCallerDoesNotAbortResolution(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)
	r := &countingResolver{gate: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, "hello-world", r.resolve)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	close(r.gate)
	// The detached resolution completes and is cached for the next caller
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		post, err := c.Get(context.Background(), "hello-world", r.resolve)
		if err == nil && post != nil {
			break
		}
	}
	if got := r.calls.Load(); got != 1 {
		t.Errorf("Expected the first resolution to be reused, got %d calls", got)
	}
}

func BenchmarkGet_Hit(b *testing.B) {
	backend, _ := cache.NewMemoryBackend(0)
	c := cache.New(backend, cache.Policy{Window: time.Hour}, zerolog.Nop())
	r := &countingResolver{}
	ctx := context.Background()
	c.Get(ctx, "hello-world", r.resolve)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		c.Get(ctx, "hello-world", r.resolve)
	}
}

func BenchmarkGet_ParallelHit(b *testing.B) {
	backend, _ := cache.NewMemoryBackend(0)
	c := cache.New(backend, cache.Policy{Window: time.Hour}, zerolog.Nop())
	r := &countingResolver{}
	ctx := context.Background()
	c.Get(ctx, "hello-world", r.resolve)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.Get(ctx, "hello-world", r.resolve)
		}
	})
}
