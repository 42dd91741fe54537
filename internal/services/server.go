package services

import (
	"context"
	"log"
	"net/url"

	"github.com/go-authgate/tokenserver/internal/core"
	"github.com/go-authgate/tokenserver/internal/grant"
	"github.com/go-authgate/tokenserver/internal/oauth"
	"github.com/go-authgate/tokenserver/internal/token"
)

// TokenRequest is a token endpoint request before client authentication
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Params       url.Values
}

// Server runs the token endpoint pipeline: client authentication, grant
// evaluation, issuance.
type Server struct {
	clients      *ClientService
	grants       *grant.Registry
	tokens       *TokenService
	responseType token.ResponseType
	metrics      core.Recorder
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithResponseType replaces the default bearer response type
func WithResponseType(rt token.ResponseType) ServerOption {
	return func(s *Server) {
		s.responseType = rt
	}
}

func NewServer(
	clients *ClientService,
	grants *grant.Registry,
	tokens *TokenService,
	m core.Recorder,
	opts ...ServerOption,
) *Server {
	s := &Server{
		clients:      clients,
		grants:       grants,
		tokens:       tokens,
		responseType: token.BearerTokenResponse{},
		metrics:      m,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Grants returns the grant registry so custom grants can be registered
func (s *Server) Grants() *grant.Registry {
	return s.grants
}

// RespondToAccessTokenRequest authenticates the client, evaluates the grant
// and issues tokens. Every failure is an *oauth.Error.
func (s *Server) RespondToAccessTokenRequest(
	ctx context.Context,
	req *TokenRequest,
) (*token.Response, error) {
	if req.GrantType == "" {
		s.metrics.RecordGrantFailure("none", oauth.CodeInvalidRequest)
		return nil, oauth.InvalidRequest("grant_type")
	}
	g, ok := s.grants.Get(req.GrantType)
	if !ok {
		s.metrics.RecordGrantFailure("unsupported", oauth.CodeUnsupportedGrantType)
		return nil, oauth.UnsupportedGrantType()
	}

	client, err := s.clients.Authenticate(ctx, req.ClientID, req.ClientSecret, req.GrantType)
	if err != nil {
		if oauth.CodeOf(err) == oauth.CodeInvalidClient {
			s.metrics.RecordClientAuthFailure(req.GrantType)
		}
		return nil, s.fail(req.GrantType, err)
	}

	intent, err := g.Evaluate(ctx, &grant.Request{
		GrantType: req.GrantType,
		Client:    client,
		Scopes:    req.Scopes,
		Params:    req.Params,
	})
	if err != nil {
		return nil, s.fail(req.GrantType, err)
	}

	resp, err := s.tokens.Issue(ctx, intent, s.responseType)
	if err != nil {
		return nil, s.fail(req.GrantType, err)
	}
	return resp, nil
}

// fail records the failure and normalizes err into an *oauth.Error
func (s *Server) fail(grantType string, err error) error {
	oe, ok := oauth.As(err)
	if !ok {
		log.Printf("[Token] Unexpected error for %s grant: %v", grantType, err)
		oe = oauth.ServerError("")
	}
	if oe.Code == oauth.CodeServerError {
		log.Printf("[Token] Server error for %s grant: %v", grantType, err)
	}
	s.metrics.RecordGrantFailure(grantType, oe.Code)
	return oe
}
