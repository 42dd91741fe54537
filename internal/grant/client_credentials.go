package grant

import (
	"context"

	"github.com/go-authgate/tokenserver/internal/models"
	"github.com/go-authgate/tokenserver/internal/scope"
)

// ClientCredentials issues machine tokens bound to no user and without a
// refresh token.
type ClientCredentials struct {
	scopes *scope.Registry
}

func NewClientCredentials(scopes *scope.Registry) *ClientCredentials {
	return &ClientCredentials{scopes: scopes}
}

func (g *ClientCredentials) Identifier() string {
	return models.GrantTypeClientCredentials
}

func (g *ClientCredentials) Evaluate(_ context.Context, req *Request) (*Intent, error) {
	granted, err := resolveScopes(g.scopes, req)
	if err != nil {
		return nil, err
	}
	return &Intent{
		GrantType: g.Identifier(),
		Client:    req.Client,
		Scopes:    granted,
	}, nil
}
