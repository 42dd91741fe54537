package grant

import (
	"context"
	"errors"

	"github.com/go-authgate/tokenserver/internal/models"
	"github.com/go-authgate/tokenserver/internal/oauth"
	"github.com/go-authgate/tokenserver/internal/store"
	"github.com/go-authgate/tokenserver/internal/token"
)

// RefreshTokenParser verifies signed refresh tokens
type RefreshTokenParser interface {
	ParseRefreshToken(tokenString string) (*token.RefreshClaims, error)
}

// RefreshTokenReader loads refresh token records
type RefreshTokenReader interface {
	GetRefreshToken(ctx context.Context, id string) (*models.RefreshToken, error)
}

// RefreshToken exchanges a refresh token for a new token pair. The old pair
// is revoked by the issuer in the same transaction as the new write.
type RefreshToken struct {
	parser RefreshTokenParser
	tokens RefreshTokenReader
}

func NewRefreshToken(parser RefreshTokenParser, tokens RefreshTokenReader) *RefreshToken {
	return &RefreshToken{parser: parser, tokens: tokens}
}

func (g *RefreshToken) Identifier() string {
	return models.GrantTypeRefreshToken
}

func (g *RefreshToken) Evaluate(ctx context.Context, req *Request) (*Intent, error) {
	raw, err := requireParam(req, "refresh_token")
	if err != nil {
		return nil, err
	}

	claims, err := g.parser.ParseRefreshToken(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpiredRefreshToken) {
			return nil, oauth.InvalidRefreshToken("Token has expired")
		}
		return nil, oauth.InvalidRefreshToken("Cannot decrypt the refresh token")
	}
	if claims.ClientID != req.Client.ID {
		return nil, oauth.InvalidRefreshToken("Token is not linked to client")
	}

	record, err := g.tokens.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, oauth.InvalidRefreshToken("Token has been revoked")
		}
		return nil, serverError("load refresh token", err)
	}
	if record.Revoked {
		return nil, oauth.InvalidRefreshToken("Token has been revoked")
	}

	granted, err := narrowScopes(req.Scopes, claims.Scopes)
	if err != nil {
		return nil, err
	}

	return &Intent{
		GrantType:            g.Identifier(),
		Client:               req.Client,
		UserID:               stringPtr(claims.UserID),
		Scopes:               granted,
		IssueRefreshToken:    true,
		RotateRefreshTokenID: record.ID,
	}, nil
}

// narrowScopes returns requested when it is a subset of original, or
// original when nothing was requested.
func narrowScopes(requested, original []string) ([]string, error) {
	if len(requested) == 0 {
		if original == nil {
			return []string{}, nil
		}
		return original, nil
	}
	allowed := make(map[string]struct{}, len(original))
	for _, s := range original {
		allowed[s] = struct{}{}
	}
	out := make([]string, 0, len(requested))
	seen := make(map[string]struct{}, len(requested))
	for _, s := range requested {
		if _, ok := allowed[s]; !ok {
			return nil, oauth.InvalidScope(s)
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}
