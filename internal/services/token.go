package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/go-authgate/tokenserver/internal/config"
	"github.com/go-authgate/tokenserver/internal/core"
	"github.com/go-authgate/tokenserver/internal/grant"
	"github.com/go-authgate/tokenserver/internal/models"
	"github.com/go-authgate/tokenserver/internal/oauth"
	"github.com/go-authgate/tokenserver/internal/scope"
	"github.com/go-authgate/tokenserver/internal/store"
	"github.com/go-authgate/tokenserver/internal/token"
	"github.com/go-authgate/tokenserver/internal/util"
)

var (
	ErrPersonalAccessClientNotFound = errors.New(
		"personal access client not found, please create one",
	)
	ErrTokenRevoked = errors.New("token has been revoked")
)

// TokenService mints, persists, looks up and revokes tokens
type TokenService struct {
	tokens   core.TokenStore
	codes    core.AuthCodeStore
	clients  core.ClientStore
	provider *token.LocalTokenProvider
	personal *grant.PersonalAccess
	config   *config.Config
	clock    core.Clock
	metrics  core.Recorder
}

func NewTokenService(
	tokens core.TokenStore,
	codes core.AuthCodeStore,
	clients core.ClientStore,
	provider *token.LocalTokenProvider,
	scopes *scope.Registry,
	cfg *config.Config,
	clock core.Clock,
	m core.Recorder,
) *TokenService {
	return &TokenService{
		tokens:   tokens,
		codes:    codes,
		clients:  clients,
		provider: provider,
		personal: grant.NewPersonalAccess(scopes),
		config:   cfg,
		clock:    clock,
		metrics:  m,
	}
}

// accessTokenTTL returns the configured lifetime for grantType
func (s *TokenService) accessTokenTTL(grantType string) time.Duration {
	var ttl time.Duration
	switch grantType {
	case models.GrantTypeClientCredentials:
		ttl = s.config.ClientCredentialsTokenExpiration
	case models.GrantTypePassword:
		ttl = s.config.PasswordTokenExpiration
	case models.GrantTypePersonalAccess:
		ttl = s.config.PersonalAccessTokenExpiration
	}
	if ttl <= 0 {
		ttl = s.config.AccessTokenExpiration
	}
	if ttl <= 0 {
		ttl = config.DefaultAccessTokenExpiration
	}
	return ttl
}

func (s *TokenService) refreshTokenTTL() time.Duration {
	if s.config.RefreshTokenExpiration > 0 {
		return s.config.RefreshTokenExpiration
	}
	return 2 * config.DefaultAccessTokenExpiration
}

// Issue mints the tokens described by intent, renders them with rt and
// persists them. Nothing is written unless signing and rendering succeeded,
// and the write (including consuming an auth code or rotating a refresh
// token) is a single transaction.
func (s *TokenService) Issue(
	ctx context.Context,
	intent *grant.Intent,
	rt token.ResponseType,
) (*token.Response, error) {
	_, resp, err := s.issue(ctx, intent, rt)
	return resp, err
}

func (s *TokenService) issue(
	ctx context.Context,
	intent *grant.Intent,
	rt token.ResponseType,
) (*token.Issued, *token.Response, error) {
	start := time.Now()
	now := s.clock.Now()
	ttl := s.accessTokenTTL(intent.GrantType)

	accessID, err := util.RandomIdentifier()
	if err != nil {
		return nil, nil, serverError("generate token id", err)
	}
	access := &models.AccessToken{
		ID:        accessID,
		UserID:    intent.UserID,
		ClientID:  intent.Client.ID,
		Name:      intent.Name,
		Scopes:    models.StringArray(intent.Scopes),
		ExpiresAt: now.Add(ttl),
	}
	if access.Scopes == nil {
		access.Scopes = models.StringArray{}
	}

	accessString, err := s.provider.SignAccessToken(access, now)
	if err != nil {
		return nil, nil, serverError("sign access token", err)
	}

	issued := &token.Issued{
		Client:            intent.Client,
		AccessToken:       access,
		AccessTokenString: accessString,
		ExpiresIn:         int64(ttl / time.Second),
	}

	if intent.IssueRefreshToken {
		refreshID, err := util.RandomIdentifier()
		if err != nil {
			return nil, nil, serverError("generate refresh token id", err)
		}
		refresh := &models.RefreshToken{
			ID:            refreshID,
			AccessTokenID: access.ID,
			ExpiresAt:     now.Add(s.refreshTokenTTL()),
		}
		refreshString, err := s.provider.SignRefreshToken(refresh, access, now)
		if err != nil {
			return nil, nil, serverError("sign refresh token", err)
		}
		issued.RefreshToken = refresh
		issued.RefreshTokenString = refreshString
	}

	if rt == nil {
		rt = token.BearerTokenResponse{}
	}
	resp, err := rt.BuildResponse(issued)
	if err != nil {
		return nil, nil, serverError("build token response", err)
	}

	if err := s.persist(ctx, intent, issued); err != nil {
		return nil, nil, err
	}

	elapsed := time.Since(start)
	s.metrics.RecordTokenIssued(store.TokenCategoryAccess, intent.GrantType, elapsed)
	if issued.RefreshToken != nil {
		s.metrics.RecordTokenIssued(store.TokenCategoryRefresh, intent.GrantType, elapsed)
	}
	return issued, resp, nil
}

func (s *TokenService) persist(ctx context.Context, intent *grant.Intent, issued *token.Issued) error {
	var err error
	switch {
	case intent.ConsumeAuthCodeID != "":
		err = s.codes.ConsumeAuthCode(ctx, intent.ConsumeAuthCodeID, issued.AccessToken, issued.RefreshToken)
		if errors.Is(err, store.ErrAlreadyConsumed) {
			return oauth.InvalidGrant("Authorization code has been revoked")
		}
	case intent.RotateRefreshTokenID != "":
		err = s.tokens.RotateRefreshToken(ctx, intent.RotateRefreshTokenID, issued.AccessToken, issued.RefreshToken)
		if errors.Is(err, store.ErrAlreadyConsumed) || errors.Is(err, store.ErrRecordNotFound) {
			return oauth.InvalidRefreshToken("Token has been revoked")
		}
	default:
		err = s.tokens.CreateTokens(ctx, issued.AccessToken, issued.RefreshToken)
	}
	if err != nil {
		s.metrics.RecordDatabaseQueryError("issue_tokens")
		return serverError("persist tokens", err)
	}
	return nil
}

// PersonalAccessTokenResult is a freshly created personal access token
type PersonalAccessTokenResult struct {
	AccessToken string
	Token       *models.AccessToken
}

// CreatePersonalAccessToken issues a named token for userID through the
// personal access client.
func (s *TokenService) CreatePersonalAccessToken(
	ctx context.Context,
	userID, name string,
	scopes []string,
) (*PersonalAccessTokenResult, error) {
	client, err := s.clients.GetPersonalAccessClient(ctx)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrPersonalAccessClientNotFound
		}
		return nil, fmt.Errorf("failed to load personal access client: %w", err)
	}

	intent, err := s.personal.Evaluate(ctx, &grant.Request{
		GrantType: models.GrantTypePersonalAccess,
		Client:    client,
		Scopes:    scopes,
		Params:    url.Values{"user_id": {userID}, "name": {name}},
	})
	if err != nil {
		return nil, err
	}

	issued, _, err := s.issue(ctx, intent, token.BearerTokenResponse{})
	if err != nil {
		return nil, err
	}
	return &PersonalAccessTokenResult{
		AccessToken: issued.AccessTokenString,
		Token:       issued.AccessToken,
	}, nil
}

// FindAccessToken resolves the stored token behind a token response
func (s *TokenService) FindAccessToken(
	ctx context.Context,
	resp *token.Response,
) (*models.AccessToken, error) {
	id, err := s.provider.AccessTokenID(resp.AccessToken)
	if err != nil {
		return nil, err
	}
	return s.tokens.GetAccessToken(ctx, id)
}

// ValidateAccessToken verifies a bearer token and returns its record when it
// is signed, unexpired and not revoked.
func (s *TokenService) ValidateAccessToken(
	ctx context.Context,
	tokenString string,
) (*models.AccessToken, error) {
	claims, err := s.provider.ParseAccessToken(tokenString)
	if err != nil {
		result := "invalid"
		if errors.Is(err, token.ErrExpiredToken) {
			result = "expired"
		}
		s.metrics.RecordTokenValidation(result)
		return nil, err
	}

	record, err := s.tokens.GetAccessToken(ctx, claims.ID)
	if err != nil {
		s.metrics.RecordTokenValidation("invalid")
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, token.ErrInvalidToken
		}
		return nil, err
	}
	if !record.IsValidAt(s.clock.Now()) {
		s.metrics.RecordTokenValidation("revoked")
		return nil, ErrTokenRevoked
	}

	s.metrics.RecordTokenValidation("valid")
	return record, nil
}

// RevokeToken revokes an access or refresh token presented by client
// (RFC 7009). Tokens that are unknown, malformed or owned by another client
// are ignored.
func (s *TokenService) RevokeToken(ctx context.Context, client *models.Client, tokenString string) error {
	var accessID string
	if claims, err := s.provider.ParseRefreshToken(tokenString); err == nil {
		accessID = claims.AccessTokenID
	} else {
		id, err := s.provider.AccessTokenID(tokenString)
		if err != nil {
			return nil
		}
		accessID = id
	}

	record, err := s.tokens.GetAccessToken(ctx, accessID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if record.ClientID != client.ID || record.Revoked {
		return nil
	}
	return s.RevokeAccessTokenByID(ctx, record.ID, "client_request")
}

// RevokeAccessTokenByID revokes an access token and its refresh token
func (s *TokenService) RevokeAccessTokenByID(ctx context.Context, id, reason string) error {
	if err := s.tokens.RevokeAccessToken(ctx, id); err != nil {
		return err
	}
	s.metrics.RecordTokenRevoked(store.TokenCategoryAccess, reason)
	if _, err := s.tokens.GetRefreshTokenByAccessTokenID(ctx, id); err == nil {
		s.metrics.RecordTokenRevoked(store.TokenCategoryRefresh, reason)
	}
	log.Printf("[Token] Revoked access token %s (%s)", truncateID(id), reason)
	return nil
}

func serverError(op string, err error) error {
	log.Printf("[Token] Failed to %s: %v", op, err)
	return oauth.ServerError("")
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}
