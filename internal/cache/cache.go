// internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ===============================
// CACHE INTERFACE
// ===============================

// Cache stores opaque byte values with a TTL
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error

	// Increment adds delta to the integer at key and returns the new value.
	// A missing or expired key starts from zero and expires after ttl; the
	// expiry of an existing counter is left unchanged.
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)

	Stats(ctx context.Context) (*CacheStats, error)
	Health(ctx context.Context) error
	Close() error
}

// CacheStats represents cache statistics
type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Sets    int64 `json:"sets"`
	Deletes int64 `json:"deletes"`
	Keys    int64 `json:"keys"`
}

// ===============================
// CACHE CONFIGURATION
// ===============================

// Config holds cache configuration
type Config struct {
	Provider        string        `json:"provider"` // "memory", "redis"
	TTL             time.Duration `json:"ttl"`
	MaxKeys         int           `json:"max_keys"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
	RedisURL        string        `json:"redis_url"`
	PoolSize        int           `json:"pool_size"`
	KeyPrefix       string        `json:"key_prefix"`
}

// DefaultConfig returns a default cache configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:        "memory",
		TTL:             time.Minute,
		MaxKeys:         1000,
		CleanupInterval: 5 * time.Minute,
		PoolSize:        10,
		KeyPrefix:       "helpinghands:",
	}
}

// ===============================
// MEMORY CACHE IMPLEMENTATION
// ===============================

// memoryCache implements Cache using in-memory storage
type memoryCache struct {
	mu         sync.Mutex
	items      map[string]*cacheItem
	maxKeys    int
	defaultTTL time.Duration
	logger     *zap.Logger
	stats      CacheStats
	now        func() time.Time
	stopCh     chan struct{}
	stopOnce   sync.Once
}

type cacheItem struct {
	value      []byte
	expiresAt  time.Time
	accessedAt time.Time
	// counters are only evicted once no plain entry is left
	counter bool
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(config *Config, logger *zap.Logger) Cache {
	return newMemoryCache(config, logger, time.Now)
}

func newMemoryCache(config *Config, logger *zap.Logger, now func() time.Time) *memoryCache {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &memoryCache{
		items:      make(map[string]*cacheItem),
		maxKeys:    config.MaxKeys,
		defaultTTL: config.TTL,
		logger:     logger,
		now:        now,
		stopCh:     make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		go c.cleanup(config.CleanupInterval)
	}

	return c
}

// Get retrieves a value from the cache
func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		c.stats.Misses++
		return nil, false
	}

	now := c.now()
	if now.After(item.expiresAt) {
		delete(c.items, key)
		c.stats.Misses++
		return nil, false
	}

	item.accessedAt = now
	c.stats.Hits++

	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, true
}

// Set stores a value in the cache
func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if _, exists := c.items[key]; !exists && c.maxKeys > 0 && len(c.items) >= c.maxKeys {
		c.evictLRU()
	}

	now := c.now()
	stored := make([]byte, len(value))
	copy(stored, value)
	c.items[key] = &cacheItem{
		value:      stored,
		expiresAt:  now.Add(ttl),
		accessedAt: now,
	}

	c.stats.Sets++
	return nil
}

// Delete removes a value from the cache
func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; exists {
		delete(c.items, key)
		c.stats.Deletes++
	}
	return nil
}

// DeletePattern removes all keys matching a pattern
func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if matchPattern(key, pattern) {
			delete(c.items, key)
			c.stats.Deletes++
		}
	}
	return nil
}

// Increment atomically adds delta to a counter
func (c *memoryCache) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	now := c.now()
	item, exists := c.items[key]
	if exists && now.After(item.expiresAt) {
		delete(c.items, key)
		exists = false
	}

	if !exists {
		if c.maxKeys > 0 && len(c.items) >= c.maxKeys {
			c.evictLRU()
		}
		c.items[key] = &cacheItem{
			value:      []byte(strconv.FormatInt(delta, 10)),
			expiresAt:  now.Add(ttl),
			accessedAt: now,
			counter:    true,
		}
		c.stats.Sets++
		return delta, nil
	}

	current, err := strconv.ParseInt(string(item.value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("value at %q is not an integer: %w", key, err)
	}
	next := current + delta
	if (delta > 0 && next < current) || (delta < 0 && next > current) {
		return 0, fmt.Errorf("increment of %q overflows", key)
	}

	item.value = []byte(strconv.FormatInt(next, 10))
	item.accessedAt = now
	item.counter = true
	c.stats.Sets++
	return next, nil
}

// Stats returns a copy of the counters
func (c *memoryCache) Stats(ctx context.Context) (*CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Keys = int64(len(c.items))
	return &stats, nil
}

// Health performs a write/read round trip
func (c *memoryCache) Health(ctx context.Context) error {
	const testKey = "__health_check__"
	if err := c.Set(ctx, testKey, []byte("ok"), time.Second); err != nil {
		return err
	}
	if _, ok := c.Get(ctx, testKey); !ok {
		return fmt.Errorf("memory cache health check failed")
	}
	return c.Delete(ctx, testKey)
}

// Close stops the cleanup goroutine
func (c *memoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	return nil
}

func (c *memoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *memoryCache) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expired := 0
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			expired++
		}
	}

	if expired > 0 {
		c.logger.Debug("Cleaned up expired cache items",
			zap.Int("expired_count", expired),
			zap.Int("remaining_count", len(c.items)),
		)
	}
}

// evictLRU evicts the least recently used item, preferring plain entries
// over counters; caller holds mu
func (c *memoryCache) evictLRU() {
	var oldestKey string
	var oldest *cacheItem

	for key, item := range c.items {
		switch {
		case oldest == nil:
		case oldest.counter && !item.counter:
		case oldest.counter == item.counter && item.accessedAt.Before(oldest.accessedAt):
		default:
			continue
		}
		oldestKey = key
		oldest = item
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

// matchPattern performs simple wildcard pattern matching
func matchPattern(str, pattern string) bool {
	if pattern == "*" {
		return true
	}

	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(str, strings.TrimSuffix(pattern, "*"))
	}

	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(str, strings.TrimPrefix(pattern, "*"))
	}

	return str == pattern
}

// ===============================
// FACTORY FUNCTION
// ===============================

// NewCache creates a new cache instance based on configuration
func NewCache(config *Config, logger *zap.Logger) (Cache, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(config.Provider) {
	case "redis":
		return NewRedisCache(config, logger)
	case "memory", "":
		logger.Info("Using in-memory cache")
		return NewMemoryCache(config, logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", config.Provider)
	}
}

// ===============================
// REDIS CACHE IMPLEMENTATION
// ===============================

type redisCache struct {
	client *redis.Client
	logger *zap.Logger
	config *Config
}

// NewRedisCache creates a new Redis-based cache
func NewRedisCache(config *Config, logger *zap.Logger) (Cache, error) {
	if config == nil {
		return nil, fmt.Errorf("cache config cannot be nil")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	options, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if config.PoolSize > 0 {
		options.PoolSize = config.PoolSize
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis cache initialized",
		zap.String("addr", options.Addr),
		zap.Int("db", options.DB),
	)

	return newRedisCacheWithClient(client, config, logger), nil
}

func newRedisCacheWithClient(client *redis.Client, config *Config, logger *zap.Logger) *redisCache {
	return &redisCache{client: client, logger: logger, config: config}
}

func (r *redisCache) key(k string) string {
	return r.config.KeyPrefix + k
}

func (r *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	} else if err != nil {
		r.logger.Error("Failed to get from Redis",
			zap.String("key", key),
			zap.Error(err))
		return nil, false
	}
	return val, true
}

func (r *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.config.TTL
	}
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *redisCache) DeletePattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, r.key(pattern), 0).Iterator()
	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 1000 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}

	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

// incrementScript sets the expiry only on a counter that has none, so
// INCRBY and PEXPIRE happen in one round trip and cannot be split.
var incrementScript = redis.NewScript(`
local n = redis.call('INCRBY', KEYS[1], ARGV[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return n
`)

func (r *redisCache) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		ttl = r.config.TTL
	}
	return incrementScript.Run(ctx, r.client, []string{r.key(key)}, delta, ttl.Milliseconds()).Int64()
}

func (r *redisCache) Stats(ctx context.Context) (*CacheStats, error) {
	n, err := r.client.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}
	return &CacheStats{Keys: n}, nil
}

func (r *redisCache) Health(ctx context.Context) error {
	_, err := r.client.Ping(ctx).Result()
	return err
}

func (r *redisCache) Close() error {
	return r.client.Close()
}

// ===============================
// TYPED HELPERS
// ===============================

// GetOrLoad returns the cached JSON value for key, or calls load, caches its
// result and returns it. Cache failures are logged and never returned.
func GetOrLoad[T any](ctx context.Context, c Cache, logger *zap.Logger, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if c != nil {
		if raw, ok := c.Get(ctx, key); ok {
			var cached T
			if err := json.Unmarshal(raw, &cached); err == nil {
				logger.Debug("Cache hit", zap.String("key", key))
				return cached, nil
			}
			logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
		}
	}

	result, err := load(ctx)
	if err != nil {
		return result, err
	}

	if c != nil {
		if raw, err := json.Marshal(result); err == nil {
			if err := c.Set(ctx, key, raw, ttl); err != nil {
				logger.Warn("Failed to cache result", zap.String("key", key), zap.Error(err))
			}
		}
	}

	return result, nil
}
