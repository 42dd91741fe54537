package bootstrap

import (
	"log"
	"net/http"

	"github.com/go-authgate/tokenserver/internal/config"
	"github.com/go-authgate/tokenserver/internal/metrics"
	"github.com/go-authgate/tokenserver/internal/middleware"
	"github.com/go-authgate/tokenserver/internal/store"
	"github.com/go-authgate/tokenserver/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	db *store.Store,
	h handlerSet,
	prometheusMetrics metrics.Recorder,
	rateLimitRedisClient *redis.Client,
) *gin.Engine {
	// Setup Gin mode
	setupGinMode(cfg)
	r := gin.New()

	// Setup middleware
	r.Use(metrics.HTTPMetricsMiddleware(prometheusMetrics))
	r.Use(gin.Logger(), gin.Recovery())

	// Health check endpoint
	r.GET("/health", createHealthCheckHandler(db))

	// Setup metrics endpoint
	setupMetricsEndpoint(r, cfg)

	// Setup rate limiting
	rateLimiters := setupRateLimiting(cfg, rateLimitRedisClient)

	// Setup all routes
	setupAllRoutes(r, h, rateLimiters)

	// Log server startup info
	logServerStartup(cfg)

	return r
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(r *gin.Engine, h handlerSet, rateLimiters rateLimitMiddlewares) {
	oauth := r.Group("/oauth")
	{
		oauth.POST("/token", rateLimiters.token, h.token.Token)
		oauth.POST("/token/revoke", rateLimiters.revoke, h.token.Revoke)
		oauth.GET("/tokeninfo", h.token.TokenInfo)
		oauth.GET("/scopes", h.token.Scopes)
	}
}

// healthCheck godoc
//
//	@Summary		Health check
//	@Description	Check server and database health status
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	object{status=string,database=string,version=string}	"Service is healthy"
//	@Failure		503	{object}	object{status=string,database=string,version=string}	"Service is unhealthy"
//	@Router			/health [get]
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch err := db.Health(c.Request.Context()); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
				"version":  version.String(),
			})
		default:
			log.Printf("[Store] Health check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
				"version":  version.String(),
			})
		}
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	mode := ginModeMap[cfg.IsProduction]
	gin.SetMode(mode)
	log.Printf("Gin mode: %s", ginModeLogMessage[cfg.IsProduction])
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}

var ginModeLogMessage = map[bool]string{
	true:  "Release (production)",
	false: "Debug (development)",
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Printf("Token server starting on %s", cfg.ServerAddr)
	log.Printf("Token endpoint: %s/oauth/token", cfg.BaseURL)
	log.Printf("Revocation endpoint: %s/oauth/token/revoke", cfg.BaseURL)
}
