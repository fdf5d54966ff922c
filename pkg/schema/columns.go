// Package schema answers which columns a table has, for deciding which
// values may be written back to the database.
package schema

import (
	"context"
	"fmt"
	"time"

	"github.com/bitechdev/BreadSpec/pkg/cache"
	"github.com/bitechdev/BreadSpec/pkg/common"
)

const keyPrefix = "columns:"

// ColumnLister returns the column names of a table
type ColumnLister interface {
	Columns(ctx context.Context, table string) ([]string, error)
}

// StaticLister serves fixed column lists, keyed by table
type StaticLister map[string][]string

func (s StaticLister) Columns(ctx context.Context, table string) ([]string, error) {
	cols, ok := s[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %s", table)
	}
	return cols, nil
}

// CachedLister introspects the database and caches the result per table
type CachedLister struct {
	db    common.Database
	cache *cache.Cache
	ttl   time.Duration
}

// NewCachedLister creates a lister. A nil cache gets an in-memory one.
func NewCachedLister(db common.Database, c *cache.Cache, ttl time.Duration) *CachedLister {
	if c == nil {
		c = cache.NewCache(cache.NewMemoryProvider(nil))
	}
	return &CachedLister{db: db, cache: c, ttl: ttl}
}

func (l *CachedLister) Columns(ctx context.Context, table string) ([]string, error) {
	var cols []string
	err := l.cache.GetOrSet(ctx, keyPrefix+table, &cols, l.ttl, func() (interface{}, error) {
		return l.db.TableColumns(ctx, table)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}
	return cols, nil
}

// Forget drops the cached columns of table, or of every table when table is ""
func (l *CachedLister) Forget(ctx context.Context, table string) error {
	if table == "" {
		return l.cache.Invalidate(ctx, keyPrefix)
	}
	return l.cache.Delete(ctx, keyPrefix+table)
}

// Contains reports whether column is in cols
func Contains(cols []string, column string) bool {
	for _, c := range cols {
		if c == column {
			return true
		}
	}
	return false
}
