package core

import (
	"context"

	"github.com/go-authgate/tokenserver/internal/models"
)

// ClientStore reads client records during authentication
type ClientStore interface {
	GetClient(ctx context.Context, id string) (*models.Client, error)
	GetPersonalAccessClient(ctx context.Context) (*models.Client, error)
}

// UserStore resolves resource owners for the password grant
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// TokenStore persists issued tokens. Every write method is atomic: either all
// rows it names are written (and any consumed artifact revoked) or none are.
type TokenStore interface {
	CreateTokens(ctx context.Context, access *models.AccessToken, refresh *models.RefreshToken) error
	GetAccessToken(ctx context.Context, id string) (*models.AccessToken, error)
	GetRefreshToken(ctx context.Context, id string) (*models.RefreshToken, error)
	GetRefreshTokenByAccessTokenID(ctx context.Context, accessTokenID string) (*models.RefreshToken, error)
	RevokeAccessToken(ctx context.Context, id string) error
	CountAccessTokens(ctx context.Context) (int64, error)

	// RotateRefreshToken revokes the refresh token and its access token and
	// writes the replacements in the same transaction.
	RotateRefreshToken(
		ctx context.Context,
		refreshTokenID string,
		access *models.AccessToken,
		refresh *models.RefreshToken,
	) error
}

// AuthCodeStore holds authorization codes between issuance and redemption
type AuthCodeStore interface {
	CreateAuthCode(ctx context.Context, code *models.AuthCode) error
	GetAuthCode(ctx context.Context, id string) (*models.AuthCode, error)

	// ConsumeAuthCode revokes the code and writes the issued tokens in the
	// same transaction.
	ConsumeAuthCode(
		ctx context.Context,
		codeID string,
		access *models.AccessToken,
		refresh *models.RefreshToken,
	) error
}
