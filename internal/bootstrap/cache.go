package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/go-authgate/tokenserver/internal/cache"
	"github.com/go-authgate/tokenserver/internal/config"
	"github.com/go-authgate/tokenserver/internal/core"
	"github.com/go-authgate/tokenserver/internal/metrics"
)

const metricsCachePrefix = "tokenserver:metrics:"

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	prometheusMetrics := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Println("Prometheus metrics initialized")
	} else {
		log.Println("Metrics disabled (using noop implementation)")
	}
	return prometheusMetrics
}

// initializeMetricsCache initializes the gauge cache based on configuration.
// No cache is created when gauges are not updated.
func initializeMetricsCache(
	ctx context.Context,
	cfg *config.Config,
) (core.Cache[int64], func() error, error) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled {
		return nil, nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
	defer cancel()

	var metricsCache core.Cache[int64]

	switch cfg.MetricsCacheType {
	case config.MetricsCacheTypeRedisAside:
		c, err := cache.NewRueidisAsideCache[int64](
			ctx,
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			metricsCachePrefix,
			cfg.MetricsCacheClientTTL,
			cfg.MetricsCacheSizePerConn,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis-aside metrics cache: %w", err)
		}
		metricsCache = c
		log.Printf(
			"Metrics cache: redis-aside (addr=%s, db=%d, client_ttl=%s, cache_size_per_conn=%dMB)",
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.MetricsCacheClientTTL,
			cfg.MetricsCacheSizePerConn,
		)

	case config.MetricsCacheTypeRedis:
		c, err := cache.NewRueidisCache[int64](
			ctx,
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			metricsCachePrefix,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis metrics cache: %w", err)
		}
		metricsCache = c
		log.Printf("Metrics cache: redis (addr=%s, db=%d)", cfg.RedisAddr, cfg.RedisDB)

	default: // memory
		metricsCache = cache.NewMemoryCache[int64]()
		log.Println("Metrics cache: memory (single instance only)")
	}

	return metricsCache, metricsCache.Close, nil
}
