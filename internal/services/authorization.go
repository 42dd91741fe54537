package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/tokenserver/internal/config"
	"github.com/go-authgate/tokenserver/internal/core"
	"github.com/go-authgate/tokenserver/internal/models"
	"github.com/go-authgate/tokenserver/internal/scope"
	"github.com/go-authgate/tokenserver/internal/util"
)

const defaultAuthCodeExpiration = 10 * time.Minute

var (
	ErrInvalidRedirectURI         = errors.New("redirect uri is not registered for client")
	ErrUnsupportedChallengeMethod = errors.New("unsupported code challenge method")
	ErrUserRequired               = errors.New("user id is required")
)

// AuthorizationService creates authorization codes for the
// authorization_code grant once the user has approved a client.
type AuthorizationService struct {
	codes  core.AuthCodeStore
	scopes *scope.Registry
	config *config.Config
	clock  core.Clock
}

func NewAuthorizationService(
	codes core.AuthCodeStore,
	scopes *scope.Registry,
	cfg *config.Config,
	clock core.Clock,
) *AuthorizationService {
	return &AuthorizationService{codes: codes, scopes: scopes, config: cfg, clock: clock}
}

// IssueCodeRequest is an approved authorization request
type IssueCodeRequest struct {
	Client              *models.Client
	UserID              string
	Scopes              []string
	RedirectURI         string
	CodeChallenge       string
	CodeChallengeMethod string
}

// IssueCode stores a new authorization code and returns its plaintext.
// Only the SHA256 of the code is persisted.
func (s *AuthorizationService) IssueCode(ctx context.Context, req IssueCodeRequest) (string, error) {
	if req.UserID == "" {
		return "", ErrUserRequired
	}
	if !req.Client.HasRedirectURI(req.RedirectURI) {
		return "", ErrInvalidRedirectURI
	}

	method := req.CodeChallengeMethod
	if req.CodeChallenge != "" {
		if method == "" {
			method = models.CodeChallengeMethodPlain
		}
		if method != models.CodeChallengeMethodPlain && method != models.CodeChallengeMethodS256 {
			return "", ErrUnsupportedChallengeMethod
		}
	} else {
		method = ""
	}

	granted, err := s.scopes.Resolve(req.Scopes, req.Client.AllowedScopes())
	if err != nil {
		return "", err
	}

	plain, err := util.RandomIdentifier()
	if err != nil {
		return "", err
	}

	ttl := s.config.AuthCodeExpiration
	if ttl <= 0 {
		ttl = defaultAuthCodeExpiration
	}
	code := &models.AuthCode{
		ID:                  util.SHA256Hex(plain),
		UserID:              req.UserID,
		ClientID:            req.Client.ID,
		Scopes:              models.StringArray(granted),
		RedirectURI:         req.RedirectURI,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: method,
		ExpiresAt:           s.clock.Now().Add(ttl),
	}
	if err := s.codes.CreateAuthCode(ctx, code); err != nil {
		return "", fmt.Errorf("failed to store authorization code: %w", err)
	}
	return plain, nil
}
