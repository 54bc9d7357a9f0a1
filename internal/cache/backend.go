package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// Backend persists entries keyed by slug
type Backend interface {
	Load(ctx context.Context, key string) (*Entry, bool, error)
	Store(ctx context.Context, key string, entry *Entry) error
}

// DefaultMaxEntries bounds the in-process backend
const DefaultMaxEntries = 10000

// minMissingEntries is the floor for the not-found LRU size
const minMissingEntries = 16

// MemoryBackend keeps entries in bounded in-process LRUs. Not-found entries
// live in their own smaller LRU so unknown slugs never evict real pages.
type MemoryBackend struct {
	entries *lru.Cache[string, *Entry]
	missing *lru.Cache[string, *Entry]
}

// NewMemoryBackend creates an in-process backend holding at most maxEntries
// pages, plus up to a quarter as many not-found markers
func NewMemoryBackend(maxEntries int) (*MemoryBackend, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	entries, err := lru.New[string, *Entry](maxEntries)
	if err != nil {
		return nil, err
	}
	missing, err := lru.New[string, *Entry](max(maxEntries/4, minMissingEntries))
	if err != nil {
		return nil, err
	}
	return &MemoryBackend{entries: entries, missing: missing}, nil
}

// Load implements Backend
func (b *MemoryBackend) Load(_ context.Context, key string) (*Entry, bool, error) {
	if entry, ok := b.entries.Get(key); ok {
		return entry, true, nil
	}
	entry, ok := b.missing.Get(key)
	return entry, ok, nil
}

// Store implements Backend
func (b *MemoryBackend) Store(_ context.Context, key string, entry *Entry) error {
	if entry.NotFound {
		b.entries.Remove(key)
		b.missing.Add(key, entry)
		return nil
	}
	b.missing.Remove(key)
	b.entries.Add(key, entry)
	return nil
}

// Len returns the number of cached slugs that resolved to a post
func (b *MemoryBackend) Len() int {
	return b.entries.Len()
}

// MissingLen returns the number of cached not-found markers
func (b *MemoryBackend) MissingLen() int {
	return b.missing.Len()
}

// RedisBackend shares entries between instances through redis.
// Page keys outlive the freshness window by retention so stale entries stay
// servable. Not-found keys expire with the window, since an expired marker is
// never served.
type RedisBackend struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
	window    time.Duration
}

// NewRedisBackend creates a redis backed store
func NewRedisBackend(client redis.UniversalClient, prefix string, retention, window time.Duration) *RedisBackend {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "blog"
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisBackend{
		client:    client,
		prefix:    prefix,
		retention: retention,
		window:    window,
	}
}

// Load implements Backend
func (b *RedisBackend) Load(ctx context.Context, key string) (*Entry, bool, error) {
	val, err := b.client.Get(ctx, b.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry Entry
	if err := json.Unmarshal(val, &entry); err != nil {
		return nil, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return &entry, true, nil
}

// Store implements Backend
func (b *RedisBackend) Store(ctx context.Context, key string, entry *Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return b.client.Set(ctx, b.key(key), payload, b.ttl(entry)).Err()
}

func (b *RedisBackend) ttl(entry *Entry) time.Duration {
	if entry.NotFound {
		return b.window
	}
	return b.retention
}

func (b *RedisBackend) key(slug string) string {
	return fmt.Sprintf("%s:page:%s", b.prefix, slug)
}
