package options

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-formschema/pkg/schema"
)

// Cache stores the most recent successful option list per key.
type Cache interface {
	Get(ctx context.Context, key string) ([]schema.Option, bool, error)
	Set(ctx context.Context, key string, opts []schema.Option) error
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	options   []schema.Option
	expiresAt time.Time
}

// MemoryCache is an in-process Cache. A zero TTL keeps entries until they
// are deleted.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]schema.Option, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return cloneOptions(entry.options), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, opts []schema.Option) error {
	entry := memoryEntry{options: cloneOptions(opts)}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// RedisConfig configures a RedisCache.
type RedisConfig struct {
	// Client is the Redis client instance.
	Client *redis.Client

	// KeyPrefix is prepended to every cache key.
	// Default: "formschema:options:"
	KeyPrefix string

	// TTL bounds how long an option list is served. Zero disables expiry.
	TTL time.Duration
}

// RedisCache shares option lists between server replicas.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisCache validates config and returns a Redis backed cache.
func NewRedisCache(config RedisConfig) (*RedisCache, error) {
	if config.Client == nil {
		return nil, errors.New("options: redis client is required")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "formschema:options:"
	}
	return &RedisCache{
		client:    config.Client,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
	}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]schema.Option, bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("options: redis get %s: %w", key, err)
	}
	var opts []schema.Option
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, false, fmt.Errorf("options: decode cached %s: %w", key, err)
	}
	return opts, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, opts []schema.Option) error {
	raw, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("options: encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("options: redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("options: redis del %s: %w", key, err)
	}
	return nil
}

func cloneOptions(opts []schema.Option) []schema.Option {
	if opts == nil {
		return nil
	}
	return append([]schema.Option(nil), opts...)
}
