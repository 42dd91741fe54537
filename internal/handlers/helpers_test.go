package handlers

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-authgate/tokenserver/internal/auth"
	"github.com/go-authgate/tokenserver/internal/config"
	"github.com/go-authgate/tokenserver/internal/grant"
	"github.com/go-authgate/tokenserver/internal/metrics"
	"github.com/go-authgate/tokenserver/internal/models"
	"github.com/go-authgate/tokenserver/internal/scope"
	"github.com/go-authgate/tokenserver/internal/services"
	"github.com/go-authgate/tokenserver/internal/store"
	"github.com/go-authgate/tokenserver/internal/token"
	"github.com/go-authgate/tokenserver/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const userPassword = "s3cret-user-password"

type handlerEnv struct {
	router  *gin.Engine
	store   *store.Store
	hasher  *util.BcryptHasher
	scopes  *scope.Registry
	clients *services.ClientService
	tokens  *services.TokenService
	authz   *services.AuthorizationService
}

// newHandlerEnv mounts the token routes on a Gin engine backed by an
// in-memory SQLite store.
func newHandlerEnv(t *testing.T, hideHints bool) *handlerEnv {
	t.Helper()
	return buildHandlerEnv(t, hideHints, false)
}

// newIDTokenHandlerEnv is newHandlerEnv with the id_token response type.
func newIDTokenHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	return buildHandlerEnv(t, true, true)
}

func buildHandlerEnv(t *testing.T, hideHints, idToken bool) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	cfg := &config.Config{
		JWTSecret:              "handlers-test-secret-0123456789",
		AccessTokenExpiration:  time.Hour,
		RefreshTokenExpiration: 24 * time.Hour,
		AuthCodeExpiration:     10 * time.Minute,
	}

	scopes := scope.NewRegistry()
	scopes.TokensCanOrdered(
		scope.Scope{ID: "read", Description: "Read access"},
		scope.Scope{ID: "write", Description: "Write access"},
	)

	clock := util.SystemClock{}
	hasher := util.NewBcryptHasher(bcrypt.MinCost)
	provider := token.NewLocalTokenProvider(cfg, clock)
	m := metrics.NewNoopMetrics()

	clients, err := services.NewClientService(s, hasher)
	require.NoError(t, err)
	users, err := auth.NewLocalAuthProvider(s, hasher)
	require.NoError(t, err)

	tokens := services.NewTokenService(s, s, s, provider, scopes, cfg, clock, m)
	var opts []services.ServerOption
	if idToken {
		opts = append(opts, services.WithResponseType(token.NewIDTokenResponse(provider)))
	}
	server := services.NewServer(
		clients,
		grant.NewRegistry(
			grant.NewClientCredentials(scopes),
			grant.NewPassword(scopes, users),
			grant.NewAuthorizationCode(s, clock),
			grant.NewRefreshToken(provider, s),
		),
		tokens,
		m,
		opts...,
	)

	h := NewTokenHandler(server, clients, tokens, scopes, hideHints)
	r := gin.New()
	r.POST("/oauth/token", h.Token)
	r.POST("/oauth/token/revoke", h.Revoke)
	r.GET("/oauth/tokeninfo", h.TokenInfo)
	r.GET("/oauth/scopes", h.Scopes)

	return &handlerEnv{
		router:  r,
		store:   s,
		hasher:  hasher,
		scopes:  scopes,
		clients: clients,
		tokens:  tokens,
		authz:   services.NewAuthorizationService(s, scopes, cfg, clock),
	}
}

func (e *handlerEnv) createClient(t *testing.T, req services.CreateClientRequest) *services.ClientResponse {
	t.Helper()
	if req.Name == "" {
		req.Name = "handler test client"
	}
	resp, err := e.clients.CreateClient(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func (e *handlerEnv) machineClient(t *testing.T) *services.ClientResponse {
	t.Helper()
	return e.createClient(t, services.CreateClientRequest{
		Confidential:   true,
		PasswordClient: true,
		RedirectURIs:   []string{"https://app.example.com/callback"},
	})
}

func (e *handlerEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	hash, err := e.hasher.Hash(userPassword)
	require.NoError(t, err)
	u := &models.User{ID: uuid.New().String(), Email: email, PasswordHash: hash}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

func (e *handlerEnv) tokenCount(t *testing.T) int64 {
	t.Helper()
	n, err := e.store.CountAccessTokens(context.Background())
	require.NoError(t, err)
	return n
}

// post sends a form POST. basic, when non-nil, is [clientID, secret].
func (e *handlerEnv) post(t *testing.T, path string, form url.Values, basic *[2]string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if basic != nil {
		creds := base64.StdEncoding.EncodeToString([]byte(basic[0] + ":" + basic[1]))
		req.Header.Set("Authorization", "Basic "+creds)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *handlerEnv) get(t *testing.T, path, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func basicOf(c *services.ClientResponse) *[2]string {
	return &[2]string{c.ID, c.ClientSecretPlain}
}
