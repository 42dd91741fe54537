package cache

import (
	"context"
	"sync"
	"time"

	"github.com/go-authgate/tokenserver/internal/core"
)

var _ core.Cache[int64] = (*MemoryCache[int64])(nil)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// MemoryCache is a process-local cache with lazy expiration.
// Only suitable when a single token server instance is running.
type MemoryCache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	now     func() time.Time
}

func NewMemoryCache[T any]() *MemoryCache[T] {
	return &MemoryCache[T]{
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
}

func (m *MemoryCache[T]) Get(_ context.Context, key string) (T, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || !m.now().Before(e.expiresAt) {
		var zero T
		return zero, ErrCacheMiss
	}
	return e.value, nil
}

func (m *MemoryCache[T]) Set(_ context.Context, key string, value T, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry[T]{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryCache[T]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// Close drops every entry.
func (m *MemoryCache[T]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]entry[T])
	return nil
}

func (m *MemoryCache[T]) Health(context.Context) error {
	return nil
}

// GetWithFetch returns the cached value or loads it through fetch and stores
// the result. Concurrent misses may each call fetch.
func (m *MemoryCache[T]) GetWithFetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetch func(ctx context.Context, key string) (T, error),
) (T, error) {
	if v, err := m.Get(ctx, key); err == nil {
		return v, nil
	}
	v, err := fetch(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	_ = m.Set(ctx, key, v, ttl)
	return v, nil
}
