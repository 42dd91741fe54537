package grant

import (
	"context"
	"errors"

	"github.com/go-authgate/tokenserver/internal/auth"
	"github.com/go-authgate/tokenserver/internal/models"
	"github.com/go-authgate/tokenserver/internal/oauth"
	"github.com/go-authgate/tokenserver/internal/scope"
)

// CredentialValidator checks resource owner credentials
type CredentialValidator interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

// Password is the resource owner password credentials grant
type Password struct {
	scopes    *scope.Registry
	validator CredentialValidator
}

func NewPassword(scopes *scope.Registry, validator CredentialValidator) *Password {
	return &Password{scopes: scopes, validator: validator}
}

func (g *Password) Identifier() string {
	return models.GrantTypePassword
}

func (g *Password) Evaluate(ctx context.Context, req *Request) (*Intent, error) {
	username, err := requireParam(req, "username")
	if err != nil {
		return nil, err
	}
	password, err := requireParam(req, "password")
	if err != nil {
		return nil, err
	}

	granted, err := resolveScopes(g.scopes, req)
	if err != nil {
		return nil, err
	}

	user, err := g.validator.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, oauth.InvalidCredentials()
		}
		return nil, serverError("authenticate user", err)
	}

	return &Intent{
		GrantType:         g.Identifier(),
		Client:            req.Client,
		UserID:            stringPtr(user.ID),
		Scopes:            granted,
		IssueRefreshToken: true,
	}, nil
}
