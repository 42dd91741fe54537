package bootstrap

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-authgate/tokenserver/internal/config"
	"github.com/go-authgate/tokenserver/internal/core"
	"github.com/go-authgate/tokenserver/internal/metrics"
	"github.com/go-authgate/tokenserver/internal/store"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server, timeout time.Duration) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(m *graceful.Manager, redisClient *redis.Client) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		log.Println("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
			return err
		}
		log.Println("Redis connection closed")
		return nil
	})
}

// addDatabaseShutdownJob closes the database pool on shutdown
func addDatabaseShutdownJob(m *graceful.Manager, db *store.Store) {
	m.AddShutdownJob(func() error {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
			return err
		}
		log.Println("Database connection closed")
		return nil
	})
}

// addTokenPurgeJob periodically deletes expired tokens and auth codes
func addTokenPurgeJob(m *graceful.Manager, cfg *config.Config, db *store.Store) {
	if cfg.TokenPurgeInterval <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.TokenPurgeInterval)
		defer ticker.Stop()

		// Run once on startup
		purgeExpiredTokens(ctx, db)

		for {
			select {
			case <-ticker.C:
				purgeExpiredTokens(ctx, db)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

func purgeExpiredTokens(ctx context.Context, db *store.Store) {
	purged, err := db.PurgeExpiredTokens(ctx, time.Now())
	switch {
	case err != nil:
		log.Printf("[Store] Failed to purge expired tokens: %v", err)
	case purged > 0:
		log.Printf("[Store] Purged %d expired tokens", purged)
	}
}

// addMetricsGaugeUpdateJob adds periodic metrics gauge update job
func addMetricsGaugeUpdateJob(
	m *graceful.Manager,
	cfg *config.Config,
	db *store.Store,
	prometheusMetrics metrics.Recorder,
	metricsCache core.Cache[int64],
) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled || metricsCache == nil {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.MetricsGaugeUpdateInterval)
		defer ticker.Stop()

		cacheWrapper := metrics.NewCacheWrapper(db, metricsCache)

		// Update immediately on startup
		updateGaugeMetricsWithCache(
			ctx,
			cacheWrapper,
			prometheusMetrics,
			cfg.MetricsGaugeUpdateInterval,
		)

		for {
			select {
			case <-ticker.C:
				updateGaugeMetricsWithCache(
					ctx,
					cacheWrapper,
					prometheusMetrics,
					cfg.MetricsGaugeUpdateInterval,
				)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addCacheCleanupJob adds cache cleanup on shutdown
func addCacheCleanupJob(m *graceful.Manager, metricsCacheCloser func() error) {
	if metricsCacheCloser == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := metricsCacheCloser(); err != nil {
			log.Printf("Error closing metrics cache: %v", err)
		} else {
			log.Println("Metrics cache closed")
		}
		return nil
	})
}

// errorLogger handles rate-limited error logging
type errorLogger struct {
	mu              sync.Mutex
	lastErrorTimes  map[string]time.Time
	rateLimitWindow time.Duration
}

// newErrorLogger creates a new error logger with rate limiting
func newErrorLogger() *errorLogger {
	return &errorLogger{
		lastErrorTimes:  make(map[string]time.Time),
		rateLimitWindow: 5 * time.Minute, // Log at most once per 5 minutes per operation
	}
}

// logIfNeeded logs an error only if rate limit allows. It reports whether
// the error was logged.
func (e *errorLogger) logIfNeeded(operation string, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	lastTime, exists := e.lastErrorTimes[operation]
	if exists && now.Sub(lastTime) < e.rateLimitWindow {
		return false
	}

	log.Printf("Database query failed for %s: %v (further errors will be suppressed for %v)",
		operation, err, e.rateLimitWindow)
	e.lastErrorTimes[operation] = now
	return true
}

var gaugeErrorLogger = newErrorLogger()

var gaugeCategories = []string{store.TokenCategoryAccess, store.TokenCategoryRefresh}

// updateGaugeMetricsWithCache updates gauge metrics using a cache-backed store.
// The cache TTL matches the update interval so every instance sees one query
// per interval.
func updateGaugeMetricsWithCache(
	ctx context.Context,
	cacheWrapper *metrics.CacheWrapper,
	m metrics.Recorder,
	cacheTTL time.Duration,
) {
	if err := cacheWrapper.UpdateGauges(ctx, m, gaugeCategories, cacheTTL); err != nil {
		gaugeErrorLogger.logIfNeeded("count_active_tokens", err)
	}
}
