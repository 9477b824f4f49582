package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache errors
var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

// CacheConfig defines cache configuration for different data types
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	// Short-lived cache for frequently accessed data
	FastCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "fast:",
	}

	// Pool items change rarely
	QuestionCacheConfig = CacheConfig{
		TTL:    30 * time.Minute,
		Prefix: "question:",
	}

	// Current-day prediction, invalidated whenever new history arrives
	PredictionCacheConfig = CacheConfig{
		TTL:    6 * time.Hour,
		Prefix: "prediction:",
	}

	// Identity provider lookups
	UserCacheConfig = CacheConfig{
		TTL:    15 * time.Minute,
		Prefix: "user:",
	}

	// Pool size counts for the session builder
	StatsCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "stats:",
	}
)

// writeTimeout bounds a cache write made on behalf of a read
const writeTimeout = 2 * time.Second

// CacheHelper wraps a redis client under a key prefix. A nil client turns every
// read into ErrCacheNotAvailable and every write into a no-op.
type CacheHelper struct {
	client *redis.Client
	prefix string
}

// NewCacheHelper creates a new cache helper instance
func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{
		client: client,
		prefix: prefix,
	}
}

// GetCacheKey generates a cache key with prefix
func (c *CacheHelper) GetCacheKey(key string) string {
	return c.prefix + key
}

// Get retrieves and unmarshals data from cache
func (c *CacheHelper) Get(ctx context.Context, key string, dest any) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, c.GetCacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}
	return nil
}

// Set marshals and stores data in cache
func (c *CacheHelper) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	return c.client.Set(ctx, c.GetCacheKey(key), data, ttl).Err()
}

// Delete removes keys from cache
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = c.GetCacheKey(key)
	}
	return c.client.Del(ctx, cacheKeys...).Err()
}

// InvalidatePattern removes all keys matching a pattern using SCAN instead of KEYS
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}

	fullPattern := c.GetCacheKey(pattern)
	var keys []string
	iter := c.client.Scan(ctx, 0, fullPattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan pattern error: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	const batchSize = 100
	for i := 0; i < len(keys); i += batchSize {
		end := min(i+batchSize, len(keys))
		pipe.Del(ctx, keys[i:end]...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache pipeline delete error: %w", err)
	}
	return nil
}

// GetOrLoad implements cache-aside: a hit is returned as is, a miss calls load
// and stores its result. Cache failures are logged and never fail the read.
func GetOrLoad[T any](ctx context.Context, c *CacheHelper, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	err := c.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		slog.WarnContext(ctx, "Cache get error, proceeding to load", "error", err, "key", key)
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := c.Set(writeCtx, key, value, ttl); err != nil {
		slog.WarnContext(ctx, "Cache set error", "error", err, "key", key)
	}

	return value, nil
}

// CacheManager manages multiple cache helpers
type CacheManager struct {
	Question   *CacheHelper
	Prediction *CacheHelper
	User       *CacheHelper
	Stats      *CacheHelper
	Fast       *CacheHelper
}

// NewCacheManager creates cache manager with all cache helpers
func NewCacheManager(client *redis.Client) *CacheManager {
	return &CacheManager{
		Question:   NewCacheHelper(client, QuestionCacheConfig.Prefix),
		Prediction: NewCacheHelper(client, PredictionCacheConfig.Prefix),
		User:       NewCacheHelper(client, UserCacheConfig.Prefix),
		Stats:      NewCacheHelper(client, StatsCacheConfig.Prefix),
		Fast:       NewCacheHelper(client, FastCacheConfig.Prefix),
	}
}

// Enabled reports whether a redis client is configured
func (cm *CacheManager) Enabled() bool {
	return cm.Fast.client != nil
}

// HealthCheck verifies cache connectivity
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.Fast.client == nil {
		return ErrCacheNotAvailable
	}

	if err := cm.Fast.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}
	return nil
}
