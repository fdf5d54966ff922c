package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bitechdev/BreadSpec/pkg/config"
)

// RedisProvider stores items in Redis under a key namespace
type RedisProvider struct {
	client    *redis.Client
	namespace string
	options   *Options
}

// NewRedisProvider connects and pings the server
func NewRedisProvider(cfg config.RedisConfig, opts *Options) (*RedisProvider, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6379
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisProvider(client, opts), nil
}

func newRedisProvider(client *redis.Client, opts *Options) *RedisProvider {
	return &RedisProvider{client: client, namespace: "breadspec:", options: opts.withDefaults()}
}

func (r *RedisProvider) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, r.namespace+key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (r *RedisProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.options.DefaultTTL
	}
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, r.namespace+key, value, ttl).Err()
}

func (r *RedisProvider) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, r.namespace+key).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// DeleteByPrefix scans the namespace and deletes matches in batches of 100
func (r *RedisProvider) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, r.namespace+prefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Clear removes the namespace only, never the whole database
func (r *RedisProvider) Clear(ctx context.Context) error {
	return r.DeleteByPrefix(ctx, "")
}

func (r *RedisProvider) Close() error {
	return r.client.Close()
}

func (r *RedisProvider) Stats(ctx context.Context) (*Stats, error) {
	dbSize, err := r.client.DBSize(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB size: %w", err)
	}
	return &Stats{
		Keys:          dbSize,
		ProviderType:  "redis",
		ProviderStats: map[string]any{"namespace": r.namespace},
	}, nil
}
