package metrics

import (
	"context"
	"time"

	"github.com/go-authgate/tokenserver/internal/core"
)

// CacheWrapper is a read-through cache in front of the gauge queries, so
// several instances updating gauges do not all hit the database.
type CacheWrapper struct {
	store core.MetricsStore
	cache core.Cache[int64]
}

func NewCacheWrapper(store core.MetricsStore, cache core.Cache[int64]) *CacheWrapper {
	return &CacheWrapper{store: store, cache: cache}
}

// GetActiveTokensCount returns the number of live tokens of a category
// ("access" or "refresh").
func (w *CacheWrapper) GetActiveTokensCount(
	ctx context.Context,
	category string,
	ttl time.Duration,
) (int64, error) {
	return w.cache.GetWithFetch(
		ctx,
		"tokens:"+category,
		ttl,
		func(context.Context, string) (int64, error) {
			return w.store.CountActiveTokensByCategory(category)
		},
	)
}

// UpdateGauges refreshes the active token gauges on m. Errors are returned
// after all categories were attempted.
func (w *CacheWrapper) UpdateGauges(
	ctx context.Context,
	m Recorder,
	categories []string,
	ttl time.Duration,
) error {
	var firstErr error
	for _, category := range categories {
		count, err := w.GetActiveTokensCount(ctx, category, ttl)
		if err != nil {
			m.RecordDatabaseQueryError("count_active_tokens")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		m.SetActiveTokensCount(category, int(count))
	}
	return firstErr
}
