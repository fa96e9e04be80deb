// Package cache implements a tiered cache: an external key/value backend
// when available, an in-process map fallback when it isn't, and
// verdict-dependent TTLs for cached URL analyses.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// Store is the uniform cache interface both backends satisfy.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Exists(ctx context.Context, key string) bool
	Clear(ctx context.Context)
	Stats(ctx context.Context) Stats
}

// Stats reports cache backend metadata for observability.
type Stats struct {
	Backend string
	Keys    int64
	Hits    int64
	Misses  int64
}

// entry is the value stored by the in-memory fallback.
type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// memoryStore is a capped, mutex-protected in-process fallback, used when
// Redis is unreachable. At capacity it evicts the oldest 10% of entries,
// matching the reference Python cache's overflow policy.
type memoryStore struct {
	mu         sync.Mutex
	data       map[string]entry
	order      []string // insertion order, for oldest-first eviction
	maxEntries int
	logger     zerolog.Logger
}

func newMemoryStore(maxEntries int, logger zerolog.Logger) *memoryStore {
	return &memoryStore{
		data:       make(map[string]entry),
		maxEntries: maxEntries,
		logger:     logger.With().Str("cache_backend", "memory").Logger(),
	}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(m.data, key)
		return nil, false
	}
	return e.value, true
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if _, exists := m.data[key]; !exists {
		m.order = append(m.order, key)
	}
	m.data[key] = entry{value: value, expiresAt: expiresAt}

	if len(m.data) > m.maxEntries {
		toRemove := len(m.data) / 10
		if toRemove < 1 {
			toRemove = 1
		}
		for i := 0; i < toRemove && len(m.order) > 0; i++ {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.data, oldest)
		}
		m.logger.Debug().Int("evicted", toRemove).Msg("evicted oldest entries at capacity")
	}
}

func (m *memoryStore) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

func (m *memoryStore) Exists(ctx context.Context, key string) bool {
	_, ok := m.Get(ctx, key)
	return ok
}

func (m *memoryStore) Clear(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]entry)
	m.order = nil
}

func (m *memoryStore) Stats(_ context.Context) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Backend: "memory", Keys: int64(len(m.data))}
}

// redisStore backs the cache with an external key/value store.
type redisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

func newRedisStore(client *redis.Client, logger zerolog.Logger) *redisStore {
	return &redisStore{client: client, logger: logger.With().Str("cache_backend", "redis").Logger()}
}

func (r *redisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		return nil, false
	}
	return value, true
}

func (r *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

func (r *redisStore) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("cache delete failed")
	}
}

func (r *redisStore) Exists(ctx context.Context, key string) bool {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("cache exists failed")
		return false
	}
	return n > 0
}

func (r *redisStore) Clear(ctx context.Context) {
	if err := r.client.FlushDB(ctx).Err(); err != nil {
		r.logger.Warn().Err(err).Msg("cache clear failed")
	}
}

func (r *redisStore) Stats(ctx context.Context) Stats {
	keys, err := r.client.DBSize(ctx).Result()
	if err != nil {
		return Stats{Backend: "redis"}
	}
	return Stats{Backend: "redis", Keys: keys}
}

// Cache is a thin JSON-aware wrapper over a Store. Backend selection
// (redis vs. in-memory) happens once at construction; callers never see
// the difference.
type Cache struct {
	store  Store
	logger zerolog.Logger
}

// New selects a Redis-backed store when client is non-nil and reachable,
// falling back to an in-process map otherwise. Cache-backend failures are
// logged but never returned to callers.
func New(client *redis.Client, maxEntries int, logger zerolog.Logger) *Cache {
	logger = logger.With().Str("component", "cache").Logger()

	if client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err == nil {
			logger.Info().Msg("using redis cache backend")
			return &Cache{store: newRedisStore(client, logger), logger: logger}
		}
		logger.Warn().Msg("redis unavailable, falling back to in-memory cache")
	}

	return &Cache{store: newMemoryStore(maxEntries, logger), logger: logger}
}

// Get retrieves and JSON-decodes a cached value into dest. Returns false if
// the key is absent, expired, or the backend failed.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	raw, ok := c.store.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache value decode failed")
		return false
	}
	return true
}

// Set JSON-encodes value and stores it with the given TTL. ttl of zero
// means no expiry.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache value encode failed")
		return
	}
	c.store.Set(ctx, key, raw, ttl)
}

func (c *Cache) Delete(ctx context.Context, key string) { c.store.Delete(ctx, key) }
func (c *Cache) Exists(ctx context.Context, key string) bool { return c.store.Exists(ctx, key) }
func (c *Cache) Clear(ctx context.Context)               { c.store.Clear(ctx) }
func (c *Cache) Stats(ctx context.Context) Stats         { return c.store.Stats(ctx) }
