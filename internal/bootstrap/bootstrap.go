package bootstrap

import (
	"context"
	"net/http"

	"github.com/go-authgate/tokenserver/internal/config"
	"github.com/go-authgate/tokenserver/internal/core"
	"github.com/go-authgate/tokenserver/internal/metrics"
	"github.com/go-authgate/tokenserver/internal/scope"
	"github.com/go-authgate/tokenserver/internal/services"
	"github.com/go-authgate/tokenserver/internal/store"
	"github.com/go-authgate/tokenserver/internal/util"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                   *store.Store
	Hasher               *util.BcryptHasher
	MetricsRecorder      metrics.Recorder
	MetricsCache         core.Cache[int64]
	MetricsCacheCloser   func() error
	RateLimitRedisClient *redis.Client

	// Domain
	Scopes               *scope.Registry
	ClientService        *services.ClientService
	TokenService         *services.TokenService
	AuthorizationService *services.AuthorizationService
	TokenServer          *services.Server

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	ctx := context.Background()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()
	return nil
}

// New builds every component without starting the server
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := validateAllConfiguration(cfg); err != nil {
		return nil, err
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		return nil, err
	}

	// Phase 3: Initialize business layer
	if err := app.initializeBusinessLayer(ctx); err != nil {
		app.closeInfrastructure()
		return nil, err
	}

	// Phase 4: Initialize HTTP layer
	app.initializeHTTPLayer()

	return app, nil
}

// initializeInfrastructure sets up database, metrics, cache, and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	app.Hasher = util.NewBcryptHasher(app.Config.BcryptCost)

	// Database
	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config)
	app.MetricsCache, app.MetricsCacheCloser, err = initializeMetricsCache(ctx, app.Config)
	if err != nil {
		app.closeInfrastructure()
		return err
	}

	// Redis (for rate limiting)
	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, app.Config)
	if err != nil {
		app.closeInfrastructure()
		return err
	}

	return nil
}

// initializeBusinessLayer sets up the scope registry, services and seed data
func (app *Application) initializeBusinessLayer(ctx context.Context) error {
	app.Scopes = initializeScopeRegistry(app.Config)

	if err := seedDatabase(ctx, app.Config, app.DB, app.Hasher); err != nil {
		return err
	}

	svc, err := initializeServices(
		app.Config,
		app.DB,
		app.Scopes,
		app.Hasher,
		app.MetricsRecorder,
	)
	if err != nil {
		return err
	}
	app.ClientService = svc.clients
	app.TokenService = svc.tokens
	app.AuthorizationService = svc.authorization
	app.TokenServer = svc.server
	return nil
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() {
	app.HandlerSet = initializeHandlers(
		app.Config,
		app.TokenServer,
		app.ClientService,
		app.TokenService,
		app.Scopes,
	)

	app.Router = setupRouter(
		app.Config,
		app.DB,
		app.HandlerSet,
		app.MetricsRecorder,
		app.RateLimitRedisClient,
	)

	app.Server = createHTTPServer(app.Config, app.Router)
}

// closeInfrastructure releases whatever initializeInfrastructure opened
func (app *Application) closeInfrastructure() {
	if app.RateLimitRedisClient != nil {
		_ = app.RateLimitRedisClient.Close()
	}
	if app.MetricsCacheCloser != nil {
		_ = app.MetricsCacheCloser()
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	// Add jobs
	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server, app.Config.ServerShutdownTimeout)
	addRedisClientShutdownJob(m, app.RateLimitRedisClient)
	addMetricsGaugeUpdateJob(m, app.Config, app.DB, app.MetricsRecorder, app.MetricsCache)
	addTokenPurgeJob(m, app.Config, app.DB)
	addCacheCleanupJob(m, app.MetricsCacheCloser)
	addDatabaseShutdownJob(m, app.DB)

	// Wait for graceful shutdown
	<-m.Done()
}
