// Package cache stores JSON-encoded values behind memory, Redis or Memcache providers.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bitechdev/BreadSpec/pkg/config"
	"github.com/bitechdev/BreadSpec/pkg/logger"
)

// ErrNotFound is returned by Get for missing keys
var ErrNotFound = errors.New("cache: key not found")

// Cache encodes values as JSON on top of a Provider
type Cache struct {
	provider Provider
}

func NewCache(provider Provider) *Cache {
	return &Cache{provider: provider}
}

// NewFromConfig builds the provider named by cfg.Provider
func NewFromConfig(cfg config.CacheConfig) (*Cache, error) {
	opts := &Options{DefaultTTL: cfg.TTL}
	switch cfg.Provider {
	case "", "memory":
		logger.Info("Cache provider: memory")
		return NewCache(NewMemoryProvider(opts)), nil
	case "redis":
		p, err := NewRedisProvider(cfg.Redis, opts)
		if err != nil {
			return nil, err
		}
		logger.Info("Cache provider: redis (%s:%d)", cfg.Redis.Host, cfg.Redis.Port)
		return NewCache(p), nil
	case "memcache":
		p, err := NewMemcacheProvider(cfg.Memcache, opts)
		if err != nil {
			return nil, err
		}
		logger.Info("Cache provider: memcache %v", cfg.Memcache.Servers)
		return NewCache(p), nil
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

// Provider returns the underlying provider
func (c *Cache) Provider() Provider {
	return c.provider
}

// Get decodes the value stored under key into dest
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := c.provider.Get(ctx, key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to deserialize: %w", err)
	}
	return nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}
	return c.provider.Set(ctx, key, data, ttl)
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.provider.Delete(ctx, key)
}

// Invalidate removes every key starting with prefix
func (c *Cache) Invalidate(ctx context.Context, prefix string) error {
	return c.provider.DeleteByPrefix(ctx, prefix)
}

func (c *Cache) Stats(ctx context.Context) (*Stats, error) {
	return c.provider.Stats(ctx)
}

func (c *Cache) Close() error {
	return c.provider.Close()
}

// GetOrSet fills dest from the cache, or from loader when the key is missing.
// A loaded value that cannot be cached is still returned.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func() (interface{}, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}

	value, err := loader()
	if err != nil {
		return fmt.Errorf("loader failed: %w", err)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize loaded value: %w", err)
	}
	if err := c.provider.Set(ctx, key, data, ttl); err != nil {
		logger.Warn("Failed to cache %s: %v", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to deserialize loaded value: %w", err)
	}
	return nil
}
