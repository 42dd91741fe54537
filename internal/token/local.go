package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/tokenserver/internal/config"
	"github.com/go-authgate/tokenserver/internal/core"
	"github.com/go-authgate/tokenserver/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Token type constants
const (
	TokenTypeBearer = "Bearer"

	refreshTokenType = "refresh"
)

// AccessClaims are the claims of a signed access token. The jti is the
// access token id and aud the client id.
type AccessClaims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// RefreshClaims are the claims of a signed refresh token. The jti is the
// refresh token id.
type RefreshClaims struct {
	Type          string   `json:"type"`
	AccessTokenID string   `json:"access_token_id"`
	ClientID      string   `json:"client_id"`
	UserID        string   `json:"user_id,omitempty"`
	Scopes        []string `json:"scopes"`
	jwt.RegisteredClaims
}

// LocalTokenProvider signs and verifies HS256 tokens with JWT_SECRET
type LocalTokenProvider struct {
	config *config.Config
	clock  core.Clock
}

// NewLocalTokenProvider creates a new local token provider
func NewLocalTokenProvider(cfg *config.Config, clock core.Clock) *LocalTokenProvider {
	return &LocalTokenProvider{config: cfg, clock: clock}
}

func (p *LocalTokenProvider) sign(claims jwt.Claims) (string, error) {
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(p.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return tokenString, nil
}

func (p *LocalTokenProvider) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return []byte(p.config.JWTSecret), nil
}

func (p *LocalTokenProvider) parserOptions() []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.clock.Now),
	}
}

// SignAccessToken serializes the stored access token as a JWT
func (p *LocalTokenProvider) SignAccessToken(t *models.AccessToken, issuedAt time.Time) (string, error) {
	subject := ""
	if t.UserID != nil {
		subject = *t.UserID
	}
	claims := AccessClaims{
		Scopes: scopesOrEmpty(t.Scopes),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        t.ID,
			Issuer:    p.config.BaseURL,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{t.ClientID},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(t.ExpiresAt),
		},
	}
	return p.sign(claims)
}

// ParseAccessToken verifies signature and expiry of an access token
func (p *LocalTokenProvider) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, p.keyFunc, p.parserOptions()...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AccessTokenID returns the jti of a correctly signed access token, expired
// or not.
func (p *LocalTokenProvider) AccessTokenID(tokenString string) (string, error) {
	claims := &AccessClaims{}
	opts := append(p.parserOptions(), jwt.WithoutClaimsValidation())
	if _, err := jwt.ParseWithClaims(tokenString, claims, p.keyFunc, opts...); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}

// SignRefreshToken serializes the refresh token with enough context to
// rebuild the grant it belongs to.
func (p *LocalTokenProvider) SignRefreshToken(
	r *models.RefreshToken,
	access *models.AccessToken,
	issuedAt time.Time,
) (string, error) {
	userID := ""
	if access.UserID != nil {
		userID = *access.UserID
	}
	claims := RefreshClaims{
		Type:          refreshTokenType,
		AccessTokenID: access.ID,
		ClientID:      access.ClientID,
		UserID:        userID,
		Scopes:        scopesOrEmpty(access.Scopes),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        r.ID,
			Issuer:    p.config.BaseURL,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(r.ExpiresAt),
		},
	}
	return p.sign(claims)
}

// ParseRefreshToken verifies a refresh token JWT
func (p *LocalTokenProvider) ParseRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, p.keyFunc, p.parserOptions()...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredRefreshToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}
	if !token.Valid || claims.Type != refreshTokenType || claims.ID == "" {
		return nil, ErrInvalidRefreshToken
	}
	return claims, nil
}

func scopesOrEmpty(s models.StringArray) []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}
