package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/go-authgate/tokenserver/internal/auth"
	"github.com/go-authgate/tokenserver/internal/config"
	"github.com/go-authgate/tokenserver/internal/core"
	"github.com/go-authgate/tokenserver/internal/grant"
	"github.com/go-authgate/tokenserver/internal/metrics"
	"github.com/go-authgate/tokenserver/internal/models"
	"github.com/go-authgate/tokenserver/internal/oauth"
	"github.com/go-authgate/tokenserver/internal/scope"
	"github.com/go-authgate/tokenserver/internal/store"
	"github.com/go-authgate/tokenserver/internal/token"
	"github.com/go-authgate/tokenserver/internal/util"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testUserPassword = "correct-horse-battery"

type testEnv struct {
	store    *store.Store
	scopes   *scope.Registry
	cfg      *config.Config
	now      time.Time
	hasher   *util.BcryptHasher
	provider *token.LocalTokenProvider
	clients  *ClientService
	tokens   *TokenService
	authz    *AuthorizationService
	server   *Server
}

// newTestEnv wires the full issuance pipeline over an in-memory SQLite store.
// The clock is read through env.now so tests can move time forward.
func newTestEnv(t *testing.T, m core.Recorder) *testEnv {
	t.Helper()
	if m == nil {
		m = metrics.NewNoopMetrics()
	}

	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	env := &testEnv{
		store:  s,
		scopes: scope.NewRegistry(),
		now:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		hasher: util.NewBcryptHasher(bcrypt.MinCost),
		cfg: &config.Config{
			JWTSecret:              "services-test-secret-0123456789",
			AccessTokenExpiration:  time.Hour,
			RefreshTokenExpiration: 24 * time.Hour,
			AuthCodeExpiration:     10 * time.Minute,
		},
	}
	env.scopes.TokensCanOrdered(
		scope.Scope{ID: "read", Description: "Read orders"},
		scope.Scope{ID: "write", Description: "Write orders"},
	)
	t.Cleanup(env.scopes.Reset)

	clock := util.ClockFunc(func() time.Time { return env.now })
	env.provider = token.NewLocalTokenProvider(env.cfg, clock)

	env.clients, err = NewClientService(s, env.hasher)
	require.NoError(t, err)

	users, err := auth.NewLocalAuthProvider(s, env.hasher)
	require.NoError(t, err)

	env.tokens = NewTokenService(s, s, s, env.provider, env.scopes, env.cfg, clock, m)
	env.authz = NewAuthorizationService(s, env.scopes, env.cfg, clock)
	env.server = NewServer(
		env.clients,
		grant.NewRegistry(
			grant.NewClientCredentials(env.scopes),
			grant.NewPassword(env.scopes, users),
			grant.NewAuthorizationCode(s, clock),
			grant.NewRefreshToken(env.provider, s),
		),
		env.tokens,
		m,
	)
	return env
}

func (e *testEnv) createClient(t *testing.T, req CreateClientRequest) *ClientResponse {
	t.Helper()
	if req.Name == "" {
		req.Name = "test client"
	}
	resp, err := e.clients.CreateClient(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) confidentialClient(t *testing.T) *ClientResponse {
	t.Helper()
	return e.createClient(t, CreateClientRequest{
		Confidential:   true,
		PasswordClient: true,
		RedirectURIs:   []string{"https://app.example.com/callback"},
	})
}

func (e *testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	hash, err := e.hasher.Hash(testUserPassword)
	require.NoError(t, err)
	u := &models.User{ID: uuid.New().String(), Email: email, PasswordHash: hash}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) tokenCount(t *testing.T) int64 {
	t.Helper()
	n, err := e.store.CountAccessTokens(context.Background())
	require.NoError(t, err)
	return n
}

func requireOAuthError(t *testing.T, err error, code string, status int) *oauth.Error {
	t.Helper()
	require.Error(t, err)
	oe, ok := oauth.As(err)
	require.True(t, ok, "expected *oauth.Error, got %T: %v", err, err)
	assert.Equal(t, code, oe.Code)
	assert.Equal(t, status, oe.Status)
	return oe
}

func s256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
