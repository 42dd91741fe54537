package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidisaside"

	"github.com/go-authgate/tokenserver/internal/core"
)

var _ core.Cache[int64] = (*RueidisAsideCache[int64])(nil)

// RueidisAsideCache keeps a client-side copy of each value that Redis
// invalidates over RESP3. GetWithFetch coalesces concurrent misses for the
// same key into a single fetch across all instances.
type RueidisAsideCache[T any] struct {
	client    rueidisaside.CacheAsideClient
	keyPrefix string
	clientTTL time.Duration
}

// NewRueidisAsideCache connects to Redis. cacheSizeMB bounds the local cache
// of each connection.
func NewRueidisAsideCache[T any](
	ctx context.Context,
	addr, password string,
	db int,
	keyPrefix string,
	clientTTL time.Duration,
	cacheSizeMB int,
) (*RueidisAsideCache[T], error) {
	client, err := rueidisaside.NewClient(rueidisaside.ClientOption{
		ClientOption: rueidis.ClientOption{
			InitAddress:       []string{addr},
			Password:          password,
			SelectDB:          db,
			CacheSizeEachConn: cacheSizeMB * 1024 * 1024,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rueidisaside client: %w", err)
	}

	raw := client.Client()
	if err := raw.Do(ctx, raw.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RueidisAsideCache[T]{
		client:    client,
		keyPrefix: keyPrefix,
		clientTTL: clientTTL,
	}, nil
}

// Get reports ErrCacheMiss instead of populating the key.
func (r *RueidisAsideCache[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T

	val, err := r.client.Get(ctx, r.clientTTL, r.keyPrefix+key,
		func(context.Context, string) (string, error) {
			return "", ErrCacheMiss
		},
	)
	switch {
	case err == nil && val != "":
		return decode[T](val)
	case err == nil, errors.Is(err, ErrCacheMiss):
		return zero, ErrCacheMiss
	default:
		return zero, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
}

func (r *RueidisAsideCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	raw := r.client.Client()
	cmd := raw.B().Set().Key(r.keyPrefix + key).Value(string(encoded)).Ex(ttl).Build()
	if err := raw.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (r *RueidisAsideCache[T]) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.keyPrefix+key); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (r *RueidisAsideCache[T]) Close() error {
	r.client.Close()
	return nil
}

func (r *RueidisAsideCache[T]) Health(ctx context.Context) error {
	raw := r.client.Client()
	if err := raw.Do(ctx, raw.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (r *RueidisAsideCache[T]) GetWithFetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetch func(ctx context.Context, key string) (T, error),
) (T, error) {
	var zero T

	val, err := r.client.Get(ctx, ttl, r.keyPrefix+key,
		func(ctx context.Context, _ string) (string, error) {
			v, err := fetch(ctx, key)
			if err != nil {
				return "", err
			}
			encoded, err := json.Marshal(v)
			if err != nil {
				return "", fmt.Errorf("%w: %v", ErrInvalidValue, err)
			}
			return string(encoded), nil
		},
	)
	if err != nil {
		return zero, fmt.Errorf("failed to get with fetch: %w", err)
	}
	return decode[T](val)
}
