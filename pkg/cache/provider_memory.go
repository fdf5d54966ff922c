package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type memoryItem struct {
	key        string
	value      []byte
	expiration time.Time
}

func (m *memoryItem) expired(now time.Time) bool {
	return !m.expiration.IsZero() && now.After(m.expiration)
}

// MemoryProvider keeps items in process with LRU eviction
type MemoryProvider struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	lru     *list.List
	options *Options
	hits    atomic.Int64
	misses  atomic.Int64
	now     func() time.Time
}

func NewMemoryProvider(opts *Options) *MemoryProvider {
	return &MemoryProvider{
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		options: opts.withDefaults(),
		now:     time.Now,
	}
}

func (m *MemoryProvider) Get(ctx context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		m.misses.Add(1)
		return nil, false
	}
	item := el.Value.(*memoryItem)
	if item.expired(m.now()) {
		m.remove(el)
		m.misses.Add(1)
		return nil, false
	}
	m.lru.MoveToFront(el)
	m.hits.Add(1)
	return item.value, true
}

func (m *MemoryProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl == 0 {
		ttl = m.options.DefaultTTL
	}
	var expiration time.Time
	if ttl > 0 {
		expiration = m.now().Add(ttl)
	}

	if el, ok := m.items[key]; ok {
		item := el.Value.(*memoryItem)
		item.value = value
		item.expiration = expiration
		m.lru.MoveToFront(el)
		return nil
	}

	if m.options.MaxSize > 0 && m.lru.Len() >= m.options.MaxSize {
		if oldest := m.lru.Back(); oldest != nil {
			m.remove(oldest)
		}
	}
	m.items[key] = m.lru.PushFront(&memoryItem{key: key, value: value, expiration: expiration})
	return nil
}

func (m *MemoryProvider) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[key]; ok {
		m.remove(el)
	}
	return nil
}

func (m *MemoryProvider) DeleteByPrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, el := range m.items {
		if strings.HasPrefix(key, prefix) {
			m.remove(el)
		}
	}
	return nil
}

func (m *MemoryProvider) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]*list.Element)
	m.lru.Init()
	m.hits.Store(0)
	m.misses.Store(0)
	return nil
}

func (m *MemoryProvider) Close() error {
	return m.Clear(context.Background())
}

func (m *MemoryProvider) Stats(ctx context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var live int64
	for el := m.lru.Front(); el != nil; el = el.Next() {
		if !el.Value.(*memoryItem).expired(now) {
			live++
		}
	}
	return &Stats{
		Hits:          m.hits.Load(),
		Misses:        m.misses.Load(),
		Keys:          live,
		ProviderType:  "memory",
		ProviderStats: map[string]any{"capacity": m.options.MaxSize},
	}, nil
}

func (m *MemoryProvider) remove(el *list.Element) {
	m.lru.Remove(el)
	delete(m.items, el.Value.(*memoryItem).key)
}
