package bootstrap

import (
	"github.com/go-authgate/tokenserver/internal/config"
	"github.com/go-authgate/tokenserver/internal/handlers"
	"github.com/go-authgate/tokenserver/internal/scope"
	"github.com/go-authgate/tokenserver/internal/services"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	token *handlers.TokenHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	server *services.Server,
	clientService *services.ClientService,
	tokenService *services.TokenService,
	scopes *scope.Registry,
) handlerSet {
	return handlerSet{
		token: handlers.NewTokenHandler(
			server,
			clientService,
			tokenService,
			scopes,
			cfg.HideErrorHints,
		),
	}
}
