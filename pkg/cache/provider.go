package cache

import (
	"context"
	"time"
)

// Provider is a byte store with per-key expiry
type Provider interface {
	// Get returns nil, false for missing or expired keys
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value for ttl; a zero ttl uses the provider default
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes every key starting with prefix
	DeleteByPrefix(ctx context.Context, prefix string) error

	Clear(ctx context.Context) error
	Close() error
	Stats(ctx context.Context) (*Stats, error)
}

// Stats describes provider usage
type Stats struct {
	Hits          int64          `json:"hits"`
	Misses        int64          `json:"misses"`
	Keys          int64          `json:"keys"`
	ProviderType  string         `json:"provider_type"`
	ProviderStats map[string]any `json:"provider_stats,omitempty"`
}

// Options apply to every provider
type Options struct {
	// DefaultTTL is used when Set is called with a zero ttl
	DefaultTTL time.Duration

	// MaxSize bounds the in-memory provider; the least recently used key is evicted
	MaxSize int
}

func (o *Options) withDefaults() *Options {
	out := Options{DefaultTTL: 5 * time.Minute, MaxSize: 10000}
	if o != nil {
		if o.DefaultTTL != 0 {
			out.DefaultTTL = o.DefaultTTL
		}
		if o.MaxSize != 0 {
			out.MaxSize = o.MaxSize
		}
	}
	return &out
}
