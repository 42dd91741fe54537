package grant

import (
	"context"

	"github.com/go-authgate/tokenserver/internal/models"
	"github.com/go-authgate/tokenserver/internal/scope"
)

// PersonalAccess issues named, user-bound tokens through the personal access
// client. It expects user_id and name parameters supplied by the caller.
type PersonalAccess struct {
	scopes *scope.Registry
}

func NewPersonalAccess(scopes *scope.Registry) *PersonalAccess {
	return &PersonalAccess{scopes: scopes}
}

func (g *PersonalAccess) Identifier() string {
	return models.GrantTypePersonalAccess
}

func (g *PersonalAccess) Evaluate(_ context.Context, req *Request) (*Intent, error) {
	userID, err := requireParam(req, "user_id")
	if err != nil {
		return nil, err
	}
	name, err := requireParam(req, "name")
	if err != nil {
		return nil, err
	}

	granted, err := resolveScopes(g.scopes, req)
	if err != nil {
		return nil, err
	}

	return &Intent{
		GrantType: g.Identifier(),
		Client:    req.Client,
		UserID:    &userID,
		Name:      &name,
		Scopes:    granted,
	}, nil
}
