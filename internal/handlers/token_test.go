package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/go-authgate/tokenserver/internal/models"
	"github.com/go-authgate/tokenserver/internal/scope"
	"github.com/go-authgate/tokenserver/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenFields = []string{"token_type", "expires_in", "access_token", "refresh_token"}

func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func assertErrorEnvelope(t *testing.T, body map[string]any, code string) {
	t.Helper()
	assert.Equal(t, code, body["error"])
	assert.NotEmpty(t, body["error_description"])
	assert.Equal(t, body["error_description"], body["message"])
	for _, f := range tokenFields {
		assert.NotContains(t, body, f)
	}
}

// ─── client_credentials ──────────────────────────────────────────────────────

func TestToken_ClientCredentials_BasicAuth(t *testing.T) {
	env := newHandlerEnv(t, true)
	client := env.machineClient(t)

	w := env.post(t, "/oauth/token", url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {"read"},
	}, basicOf(client))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))
	assert.Equal(t, "no-store, private", w.Header().Get("Cache-Control"))
	assert.Equal(t, "application/json; charset=UTF-8", w.Header().Get("Content-Type"))

	assert.True(t, strings.HasPrefix(w.Body.String(), `{"token_type":"Bearer","expires_in":`),
		"standard fields come first: %s", w.Body.String())

	body := decodeBody(t, w.Body.Bytes())
	assert.NotEmpty(t, body["access_token"])
	assert.InDelta(t, 3600, body["expires_in"], 5)
	assert.NotContains(t, body, "refresh_token")
	assert.Equal(t, int64(1), env.tokenCount(t))
}

func TestToken_ClientCredentials_FormBody(t *testing.T) {
	env := newHandlerEnv(t, true)
	client := env.machineClient(t)

	w := env.post(t, "/oauth/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {client.ID},
		"client_secret": {client.ClientSecretPlain},
	}, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decodeBody(t, w.Body.Bytes())["access_token"])
}

func TestToken_ClientCredentials_BasicAuthURLEncoded(t *testing.T) {
	env := newHandlerEnv(t, true)
	client := env.machineClient(t)

	// RFC 6749 §2.3.1: Basic credentials are form-urlencoded first
	encodedID := strings.ReplaceAll(client.ID, "-", "%2D")
	w := env.post(t, "/oauth/token", url.Values{
		"grant_type": {"client_credentials"},
	}, &[2]string{encodedID, client.ClientSecretPlain})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), env.tokenCount(t))
}

func TestUnescapeCredential(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a%2Bb", "a+b"},
		{"a+b", "a b"},
		{"100%25", "100%"},
		{"bad%zz", "bad%zz"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, unescapeCredential(tt.in), tt.in)
	}
}

func TestToken_InvalidClient(t *testing.T) {
	env := newHandlerEnv(t, true)
	client := env.machineClient(t)

	t.Run("basic auth gets a challenge", func(t *testing.T) {
		w := env.post(t, "/oauth/token", url.Values{
			"grant_type": {"client_credentials"},
		}, &[2]string{client.ID, "wrong-secret"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, `Basic realm="OAuth"`, w.Header().Get("WWW-Authenticate"))
		assert.Equal(t, "no-cache, private", w.Header().Get("Cache-Control"))
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assertErrorEnvelope(t, decodeBody(t, w.Body.Bytes()), "invalid_client")
	})

	t.Run("form credentials get no challenge", func(t *testing.T) {
		w := env.post(t, "/oauth/token", url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {client.ID},
			"client_secret": {"wrong-secret"},
		}, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, w.Header().Get("WWW-Authenticate"))
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assertErrorEnvelope(t, decodeBody(t, w.Body.Bytes()), "invalid_client")
	})

	t.Run("missing credentials", func(t *testing.T) {
		w := env.post(t, "/oauth/token", url.Values{
			"grant_type": {"client_credentials"},
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	assert.Equal(t, int64(0), env.tokenCount(t))
}

func TestToken_RequestErrors(t *testing.T) {
	env := newHandlerEnv(t, true)
	client := env.machineClient(t)

	tests := []struct {
		name string
		form url.Values
		code string
	}{
		{"missing grant type", url.Values{}, "invalid_request"},
		{"unsupported grant type", url.Values{"grant_type": {"device_code"}}, "unsupported_grant_type"},
		{"unknown scope", url.Values{"grant_type": {"client_credentials"}, "scope": {"admin"}}, "invalid_scope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.post(t, "/oauth/token", tt.form, basicOf(client))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assertErrorEnvelope(t, decodeBody(t, w.Body.Bytes()), tt.code)
		})
	}
	assert.Equal(t, int64(0), env.tokenCount(t))
}

func TestToken_Hints(t *testing.T) {
	form := url.Values{"grant_type": {"device_code"}}

	hidden := newHandlerEnv(t, true)
	w := hidden.post(t, "/oauth/token", form, basicOf(hidden.machineClient(t)))
	assert.NotContains(t, decodeBody(t, w.Body.Bytes()), "hint")

	shown := newHandlerEnv(t, false)
	w = shown.post(t, "/oauth/token", form, basicOf(shown.machineClient(t)))
	assert.NotEmpty(t, decodeBody(t, w.Body.Bytes())["hint"])
}

// ─── password ────────────────────────────────────────────────────────────────

func TestToken_Password(t *testing.T) {
	env := newHandlerEnv(t, true)
	client := env.machineClient(t)
	user := env.createUser(t, "taylor@example.com")

	w := env.post(t, "/oauth/token", url.Values{
		"grant_type": {"password"},
		"username":   {"taylor@example.com"},
		"password":   {userPassword},
		"scope":      {"read write"},
	}, basicOf(client))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w.Body.Bytes())
	assert.NotEmpty(t, body["refresh_token"])

	info := env.get(t, "/oauth/tokeninfo", body["access_token"].(string))
	require.Equal(t, http.StatusOK, info.Code)
	infoBody := decodeBody(t, info.Body.Bytes())
	assert.Equal(t, user.ID, infoBody["user_id"])
	assert.Equal(t, client.ID, infoBody["client_id"])
	assert.Equal(t, "read write", infoBody["scope"])
	assert.Equal(t, "user", infoBody["subject_type"])
}

func TestToken_Password_IDToken(t *testing.T) {
	env := newIDTokenHandlerEnv(t)
	client := env.machineClient(t)
	env.createUser(t, "taylor@example.com")

	w := env.post(t, "/oauth/token", url.Values{
		"grant_type": {"password"},
		"username":   {"taylor@example.com"},
		"password":   {userPassword},
	}, basicOf(client))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	raw := w.Body.String()
	idx := strings.Index(raw, `"id_token":`)
	require.NotEqual(t, -1, idx, raw)
	for _, f := range tokenFields {
		pos := strings.Index(raw, `"`+f+`":`)
		require.NotEqual(t, -1, pos, f)
		assert.Less(t, pos, idx, "%s precedes id_token", f)
	}

	body := decodeBody(t, w.Body.Bytes())
	assert.NotEmpty(t, body["id_token"])
}

func TestToken_ClientCredentials_NoIDToken(t *testing.T) {
	env := newIDTokenHandlerEnv(t)
	client := env.machineClient(t)

	w := env.post(t, "/oauth/token", url.Values{
		"grant_type": {"client_credentials"},
	}, basicOf(client))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, decodeBody(t, w.Body.Bytes()), "id_token")
}

func TestToken_Password_WrongPassword(t *testing.T) {
	env := newHandlerEnv(t, true)
	client := env.machineClient(t)
	env.createUser(t, "taylor@example.com")

	w := env.post(t, "/oauth/token", url.Values{
		"grant_type": {"password"},
		"username":   {"taylor@example.com"},
		"password":   {"not-it"},
	}, basicOf(client))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache, private", w.Header().Get("Cache-Control"))
	body := decodeBody(t, w.Body.Bytes())
	assertErrorEnvelope(t, body, "invalid_grant")
	assert.Equal(t, "The user credentials were incorrect.", body["error_description"])
	assert.Equal(t, int64(0), env.tokenCount(t))
}

// ─── authorization_code and refresh_token ────────────────────────────────────

func TestToken_AuthorizationCode_NoReplay(t *testing.T) {
	env := newHandlerEnv(t, true)
	client := env.machineClient(t)
	user := env.createUser(t, "sam@example.com")

	stored, err := env.clients.GetClient(context.Background(), client.ID)
	require.NoError(t, err)
	code, err := env.authz.IssueCode(context.Background(), services.IssueCodeRequest{
		Client:      stored,
		UserID:      user.ID,
		Scopes:      []string{"read"},
		RedirectURI: "https://app.example.com/callback",
	})
	require.NoError(t, err)

	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {"https://app.example.com/callback"},
	}
	first := env.post(t, "/oauth/token", form, basicOf(client))
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.NotEmpty(t, decodeBody(t, first.Body.Bytes())["refresh_token"])

	second := env.post(t, "/oauth/token", form, basicOf(client))
	assert.Equal(t, http.StatusBadRequest, second.Code)
	assertErrorEnvelope(t, decodeBody(t, second.Body.Bytes()), "invalid_grant")
	assert.Equal(t, int64(1), env.tokenCount(t))
}

func TestToken_RefreshToken_Rotation(t *testing.T) {
	env := newHandlerEnv(t, true)
	client := env.machineClient(t)
	env.createUser(t, "sam@example.com")

	issued := env.post(t, "/oauth/token", url.Values{
		"grant_type": {"password"},
		"username":   {"sam@example.com"},
		"password":   {userPassword},
		"scope":      {"read"},
	}, basicOf(client))
	require.Equal(t, http.StatusOK, issued.Code)
	original := decodeBody(t, issued.Body.Bytes())

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {original["refresh_token"].(string)},
	}
	rotated := env.post(t, "/oauth/token", form, basicOf(client))
	require.Equal(t, http.StatusOK, rotated.Code, rotated.Body.String())
	fresh := decodeBody(t, rotated.Body.Bytes())
	assert.NotEqual(t, original["refresh_token"], fresh["refresh_token"])

	// The old access token died with its refresh token.
	assert.Equal(t, http.StatusUnauthorized,
		env.get(t, "/oauth/tokeninfo", original["access_token"].(string)).Code)

	replay := env.post(t, "/oauth/token", form, basicOf(client))
	assert.Equal(t, http.StatusBadRequest, replay.Code)
	assertErrorEnvelope(t, decodeBody(t, replay.Body.Bytes()), "invalid_grant")
}

// ─── revoke ──────────────────────────────────────────────────────────────────

func TestRevoke(t *testing.T) {
	env := newHandlerEnv(t, true)
	client := env.machineClient(t)
	other := env.machineClient(t)

	issue := func() string {
		w := env.post(t, "/oauth/token", url.Values{
			"grant_type": {"client_credentials"},
		}, basicOf(client))
		require.Equal(t, http.StatusOK, w.Code)
		return decodeBody(t, w.Body.Bytes())["access_token"].(string)
	}

	t.Run("own token", func(t *testing.T) {
		tok := issue()
		w := env.post(t, "/oauth/token/revoke", url.Values{"token": {tok}}, basicOf(client))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, http.StatusUnauthorized, env.get(t, "/oauth/tokeninfo", tok).Code)
	})

	t.Run("foreign token is ignored", func(t *testing.T) {
		tok := issue()
		w := env.post(t, "/oauth/token/revoke", url.Values{"token": {tok}}, basicOf(other))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, http.StatusOK, env.get(t, "/oauth/tokeninfo", tok).Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		w := env.post(t, "/oauth/token/revoke", url.Values{"token": {"garbage"}}, basicOf(client))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		w := env.post(t, "/oauth/token/revoke", url.Values{}, basicOf(client))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assertErrorEnvelope(t, decodeBody(t, w.Body.Bytes()), "invalid_request")
	})

	t.Run("bad client", func(t *testing.T) {
		w := env.post(t, "/oauth/token/revoke", url.Values{"token": {"x"}},
			&[2]string{client.ID, "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, `Basic realm="OAuth"`, w.Header().Get("WWW-Authenticate"))
	})
}

// ─── tokeninfo and scopes ────────────────────────────────────────────────────

func TestTokenInfo_MachineToken(t *testing.T) {
	env := newHandlerEnv(t, true)
	client := env.machineClient(t)

	w := env.post(t, "/oauth/token", url.Values{
		"grant_type": {"client_credentials"},
	}, basicOf(client))
	require.Equal(t, http.StatusOK, w.Code)
	tok := decodeBody(t, w.Body.Bytes())["access_token"].(string)

	info := env.get(t, "/oauth/tokeninfo", tok)
	require.Equal(t, http.StatusOK, info.Code)
	body := decodeBody(t, info.Body.Bytes())
	assert.Equal(t, true, body["active"])
	assert.Equal(t, "client", body["subject_type"])
	assert.Equal(t, "", body["user_id"])
	assert.Equal(t, client.ID, body["client_id"])
}

func TestTokenInfo_Errors(t *testing.T) {
	env := newHandlerEnv(t, true)

	w := env.get(t, "/oauth/tokeninfo", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "missing_token", decodeBody(t, w.Body.Bytes())["error"])

	w = env.get(t, "/oauth/tokeninfo", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_token", decodeBody(t, w.Body.Bytes())["error"])
}

func TestScopes(t *testing.T) {
	env := newHandlerEnv(t, true)

	w := env.get(t, "/oauth/scopes", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []scope.Scope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, []scope.Scope{
		{ID: "read", Description: "Read access"},
		{ID: "write", Description: "Write access"},
	}, got)
}

func TestToken_PersistsTokenForClient(t *testing.T) {
	env := newHandlerEnv(t, true)
	client := env.createClient(t, services.CreateClientRequest{
		Confidential: true,
		GrantTypes:   models.GrantTypeClientCredentials,
	})

	w := env.post(t, "/oauth/token", url.Values{"grant_type": {"client_credentials"}}, basicOf(client))
	require.Equal(t, http.StatusOK, w.Code)

	record, err := env.tokens.ValidateAccessToken(context.Background(),
		decodeBody(t, w.Body.Bytes())["access_token"].(string))
	require.NoError(t, err)
	assert.Equal(t, client.ID, record.ClientID)
	assert.Nil(t, record.UserID)
}
