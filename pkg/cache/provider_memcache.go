package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/bitechdev/BreadSpec/pkg/config"
)

// MemcacheProvider stores items in memcached. Memcached cannot enumerate
// keys, so DeleteByPrefix is unsupported.
type MemcacheProvider struct {
	client  *memcache.Client
	options *Options
}

// NewMemcacheProvider connects and pings the servers
func NewMemcacheProvider(cfg config.MemcacheConfig, opts *Options) (*MemcacheProvider, error) {
	if len(cfg.Servers) == 0 {
		cfg.Servers = []string{"localhost:11211"}
	}
	client := memcache.New(cfg.Servers...)
	client.MaxIdleConns = cfg.MaxIdleConns
	if client.MaxIdleConns == 0 {
		client.MaxIdleConns = 2
	}
	client.Timeout = cfg.Timeout
	if client.Timeout == 0 {
		client.Timeout = time.Second
	}

	if err := client.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to Memcache: %w", err)
	}
	return &MemcacheProvider{client: client, options: opts.withDefaults()}, nil
}

func (m *MemcacheProvider) Get(ctx context.Context, key string) ([]byte, bool) {
	item, err := m.client.Get(key)
	if err != nil {
		return nil, false
	}
	return item.Value, true
}

func (m *MemcacheProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = m.options.DefaultTTL
	}
	var expiration int32
	if ttl > 0 {
		expiration = int32(ttl.Seconds())
	}
	return m.client.Set(&memcache.Item{Key: key, Value: value, Expiration: expiration})
}

func (m *MemcacheProvider) Delete(ctx context.Context, key string) error {
	err := m.client.Delete(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}

func (m *MemcacheProvider) DeleteByPrefix(ctx context.Context, prefix string) error {
	return fmt.Errorf("prefix deletion is not supported by Memcache")
}

func (m *MemcacheProvider) Clear(ctx context.Context) error {
	return m.client.FlushAll()
}

func (m *MemcacheProvider) Close() error {
	return m.client.Close()
}

func (m *MemcacheProvider) Stats(ctx context.Context) (*Stats, error) {
	return &Stats{ProviderType: "memcache"}, nil
}
