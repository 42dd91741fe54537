package bootstrap

import (
	"fmt"

	"github.com/go-authgate/tokenserver/internal/auth"
	"github.com/go-authgate/tokenserver/internal/config"
	"github.com/go-authgate/tokenserver/internal/grant"
	"github.com/go-authgate/tokenserver/internal/metrics"
	"github.com/go-authgate/tokenserver/internal/scope"
	"github.com/go-authgate/tokenserver/internal/services"
	"github.com/go-authgate/tokenserver/internal/store"
	"github.com/go-authgate/tokenserver/internal/token"
	"github.com/go-authgate/tokenserver/internal/util"
)

type serviceSet struct {
	clients       *services.ClientService
	tokens        *services.TokenService
	authorization *services.AuthorizationService
	server        *services.Server
}

// initializeServices creates all business logic services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	scopes *scope.Registry,
	hasher *util.BcryptHasher,
	prometheusMetrics metrics.Recorder,
) (serviceSet, error) {
	clock := util.SystemClock{}

	// Initialize authentication provider
	localProvider, err := auth.NewLocalAuthProvider(db, hasher)
	if err != nil {
		return serviceSet{}, fmt.Errorf("failed to initialize auth provider: %w", err)
	}

	// Initialize token provider
	localTokenProvider := token.NewLocalTokenProvider(cfg, clock)

	clientService, err := services.NewClientService(db, hasher)
	if err != nil {
		return serviceSet{}, fmt.Errorf("failed to initialize client service: %w", err)
	}
	tokenService := services.NewTokenService(
		db,
		db,
		db,
		localTokenProvider,
		scopes,
		cfg,
		clock,
		prometheusMetrics,
	)
	authorizationService := services.NewAuthorizationService(db, scopes, cfg, clock)

	var serverOpts []services.ServerOption
	if cfg.EnableIDToken {
		serverOpts = append(serverOpts,
			services.WithResponseType(token.NewIDTokenResponse(localTokenProvider)))
	}

	server := services.NewServer(
		clientService,
		grant.NewRegistry(
			grant.NewClientCredentials(scopes),
			grant.NewPassword(scopes, localProvider),
			grant.NewAuthorizationCode(db, clock),
			grant.NewRefreshToken(localTokenProvider, db),
		),
		tokenService,
		prometheusMetrics,
		serverOpts...,
	)

	return serviceSet{
		clients:       clientService,
		tokens:        tokenService,
		authorization: authorizationService,
		server:        server,
	}, nil
}
