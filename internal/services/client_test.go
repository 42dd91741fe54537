package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-authgate/tokenserver/internal/models"
	"github.com/go-authgate/tokenserver/internal/oauth"
	"github.com/go-authgate/tokenserver/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientService_CreateClient(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	t.Run("confidential", func(t *testing.T) {
		resp := env.createClient(t, CreateClientRequest{
			Name:         "  Billing  ",
			Scopes:       "read  write",
			GrantTypes:   "client_credentials",
			Confidential: true,
		})
		assert.Equal(t, "Billing", resp.Name)
		assert.Equal(t, "read write", resp.Scopes)
		assert.Len(t, resp.ClientSecretPlain, 40)
		assert.NotEqual(t, resp.ClientSecretPlain, resp.Secret, "secret must be stored hashed")
		assert.True(t, env.hasher.Verify(resp.ClientSecretPlain, resp.Secret))

		stored, err := env.clients.GetClient(ctx, resp.ID)
		require.NoError(t, err)
		assert.True(t, stored.Confidential())
	})

	t.Run("public", func(t *testing.T) {
		resp := env.createClient(t, CreateClientRequest{Name: "SPA"})
		assert.Empty(t, resp.ClientSecretPlain)
		assert.False(t, resp.Confidential())
	})

	t.Run("name required", func(t *testing.T) {
		_, err := env.clients.CreateClient(ctx, CreateClientRequest{Name: "   "})
		assert.ErrorIs(t, err, ErrClientNameRequired)
	})
}

func TestClientService_Authenticate(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	machine := env.createClient(t, CreateClientRequest{
		Confidential: true,
		GrantTypes:   "client_credentials",
	})
	public := env.createClient(t, CreateClientRequest{})

	t.Run("confidential client", func(t *testing.T) {
		c, err := env.clients.Authenticate(ctx, machine.ID, machine.ClientSecretPlain, models.GrantTypeClientCredentials)
		require.NoError(t, err)
		assert.Equal(t, machine.ID, c.ID)
	})

	t.Run("grant not allowed", func(t *testing.T) {
		_, err := env.clients.Authenticate(ctx, machine.ID, machine.ClientSecretPlain, models.GrantTypeRefreshToken)
		requireOAuthError(t, err, oauth.CodeUnauthorizedClient, http.StatusBadRequest)
	})

	t.Run("public client without secret", func(t *testing.T) {
		c, err := env.clients.Authenticate(ctx, public.ID, "", models.GrantTypeAuthorizationCode)
		require.NoError(t, err)
		assert.False(t, c.Confidential())
	})

	t.Run("public client never uses client credentials", func(t *testing.T) {
		_, err := env.clients.Authenticate(ctx, public.ID, "", models.GrantTypeClientCredentials)
		requireOAuthError(t, err, oauth.CodeInvalidClient, http.StatusUnauthorized)
	})

	t.Run("failures are indistinguishable", func(t *testing.T) {
		_, unknownErr := env.clients.Authenticate(ctx, "unknown", "secret", models.GrantTypeClientCredentials)
		_, wrongErr := env.clients.Authenticate(ctx, machine.ID, "secret", models.GrantTypeClientCredentials)

		unknown := requireOAuthError(t, unknownErr, oauth.CodeInvalidClient, http.StatusUnauthorized)
		wrong := requireOAuthError(t, wrongErr, oauth.CodeInvalidClient, http.StatusUnauthorized)
		assert.Equal(t, unknown.Payload(true), wrong.Payload(true))
	})
}

func TestClientService_RevokeAndDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	client := env.confidentialClient(t)
	env.createUser(t, "taylor@example.com")
	issuePasswordToken(t, env, client)

	require.NoError(t, env.clients.RevokeClient(ctx, client.ID))
	_, err := env.clients.Authenticate(ctx, client.ID, client.ClientSecretPlain, models.GrantTypePassword)
	requireOAuthError(t, err, oauth.CodeInvalidClient, http.StatusUnauthorized)

	require.NoError(t, env.clients.DeleteClient(ctx, client.ID))
	_, err = env.clients.GetClient(ctx, client.ID)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
	assert.Equal(t, int64(0), env.tokenCount(t))
}

func TestClientService_AuthenticateClient(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	machine := env.createClient(t, CreateClientRequest{
		Confidential: true,
		GrantTypes:   "client_credentials",
	})

	// No grant restriction applies.
	c, err := env.clients.AuthenticateClient(ctx, machine.ID, machine.ClientSecretPlain)
	require.NoError(t, err)
	assert.Equal(t, machine.ID, c.ID)

	_, err = env.clients.AuthenticateClient(ctx, machine.ID, "wrong")
	requireOAuthError(t, err, oauth.CodeInvalidClient, http.StatusUnauthorized)

	_, err = env.clients.AuthenticateClient(ctx, "", "")
	requireOAuthError(t, err, oauth.CodeInvalidClient, http.StatusUnauthorized)
}
