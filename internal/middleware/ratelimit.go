package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterRedis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateLimitStoreType selects where request counters live
type RateLimitStoreType string

const (
	// RateLimitStoreMemory keeps counters in process (single instance only)
	RateLimitStoreMemory RateLimitStoreType = "memory"
	// RateLimitStoreRedis shares counters between instances
	RateLimitStoreRedis RateLimitStoreType = "redis"
)

var ErrRedisClientRequired = errors.New("redis rate limit store requires a redis client")

// RateLimitConfig configures a per-IP limiter
type RateLimitConfig struct {
	RequestsPerMinute int
	StoreType         RateLimitStoreType
	CleanupInterval   time.Duration // memory store only
	Prefix            string        // counter key prefix, defaults to "ratelimit"

	// RedisClient is shared with the rest of the process; the limiter never
	// closes it.
	RedisClient *redis.Client
}

// NewRateLimiter returns a Gin middleware that answers 429 with an
// OAuth-style JSON error once a client IP exceeds the configured rate.
func NewRateLimiter(cfg RateLimitConfig) (gin.HandlerFunc, error) {
	if cfg.RequestsPerMinute <= 0 {
		return nil, fmt.Errorf("invalid requests per minute: %d", cfg.RequestsPerMinute)
	}
	rate := limiter.Rate{
		Period: time.Minute,
		Limit:  int64(cfg.RequestsPerMinute),
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "ratelimit"
	}

	var store limiter.Store
	switch cfg.StoreType {
	case RateLimitStoreRedis:
		if cfg.RedisClient == nil {
			return nil, ErrRedisClientRequired
		}
		var err error
		store, err = limiterRedis.NewStoreWithOptions(cfg.RedisClient, limiter.StoreOptions{
			Prefix: prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
	default:
		cleanup := cfg.CleanupInterval
		if cleanup <= 0 {
			cleanup = limiter.DefaultCleanUpInterval
		}
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: cleanup,
		})
	}

	instance := limiter.New(store, rate)

	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(limitReached),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// Fail open: a broken counter store must not take the token endpoint down.
			log.Printf("[RateLimit] Store error, allowing request: %v", err)
			c.Next()
		}),
	), nil
}

func limitReached(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, private")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":             "rate_limit_exceeded",
		"error_description": "Too many requests. Please try again later.",
		"message":           "Too many requests. Please try again later.",
	})
}

// NewMemoryRateLimiter is NewRateLimiter with an in-process store
func NewMemoryRateLimiter(requestsPerMinute int) (gin.HandlerFunc, error) {
	return NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: requestsPerMinute,
		StoreType:         RateLimitStoreMemory,
	})
}
