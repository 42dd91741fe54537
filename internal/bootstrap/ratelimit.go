package bootstrap

import (
	"log"

	"github.com/go-authgate/tokenserver/internal/config"
	"github.com/go-authgate/tokenserver/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// rateLimitMiddlewares holds rate limiting middlewares for different endpoints
type rateLimitMiddlewares struct {
	token  gin.HandlerFunc
	revoke gin.HandlerFunc
}

// setupRateLimiting configures rate limiting middlewares based on configuration.
// redisClient is only used with the redis store.
func setupRateLimiting(cfg *config.Config, redisClient *redis.Client) rateLimitMiddlewares {
	noOpMiddleware := func(c *gin.Context) { c.Next() }

	switch {
	case !cfg.EnableRateLimit:
		return rateLimitMiddlewares{
			token:  noOpMiddleware,
			revoke: noOpMiddleware,
		}
	default:
		return createRateLimiters(cfg, redisClient)
	}
}

// createRateLimiters creates rate limiting middlewares for all endpoints
func createRateLimiters(cfg *config.Config, redisClient *redis.Client) rateLimitMiddlewares {
	log.Printf("Rate limiting enabled (store: %s)", cfg.RateLimitStore)

	storeType := middleware.RateLimitStoreType(cfg.RateLimitStore)

	if storeType == middleware.RateLimitStoreRedis {
		log.Printf("Using shared Redis client for rate limiting")
	} else {
		log.Printf("In-memory rate limiting configured (single instance only)")
	}

	createLimiter := func(requestsPerMinute int, endpoint, prefix string) gin.HandlerFunc {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: requestsPerMinute,
			StoreType:         storeType,
			RedisClient:       redisClient,
			CleanupInterval:   cfg.RateLimitCleanupInterval,
			Prefix:            prefix,
		})
		if err != nil {
			log.Fatalf("Failed to create rate limiter for %s: %v", endpoint, err)
		}
		return limiter
	}

	return rateLimitMiddlewares{
		token:  createLimiter(cfg.TokenRateLimit, "/oauth/token", "ratelimit:token"),
		revoke: createLimiter(cfg.TokenRateLimit, "/oauth/token/revoke", "ratelimit:revoke"),
	}
}
