package oauth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		code   string
		status int
	}{
		{"invalid request", InvalidRequest("username"), CodeInvalidRequest, http.StatusBadRequest},
		{"invalid client", InvalidClient(), CodeInvalidClient, http.StatusUnauthorized},
		{"invalid credentials", InvalidCredentials(), CodeInvalidGrant, http.StatusBadRequest},
		{"invalid grant", InvalidGrant(""), CodeInvalidGrant, http.StatusBadRequest},
		{"invalid refresh token", InvalidRefreshToken(""), CodeInvalidGrant, http.StatusBadRequest},
		{"invalid scope", InvalidScope("admin"), CodeInvalidScope, http.StatusBadRequest},
		{"unauthorized client", UnauthorizedClient(), CodeUnauthorizedClient, http.StatusBadRequest},
		{"unsupported grant", UnsupportedGrantType(), CodeUnsupportedGrantType, http.StatusBadRequest},
		{"server error", ServerError(""), CodeServerError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.NotEmpty(t, tt.err.Description)
		})
	}
}

func TestPayload_InvalidClient(t *testing.T) {
	body := InvalidClient().Payload(false)

	assert.Equal(t, map[string]string{
		"error":             "invalid_client",
		"error_description": "Client authentication failed",
		"message":           "Client authentication failed",
	}, body)
}

func TestPayload_HintOnlyWhenEnabled(t *testing.T) {
	err := InvalidScope("admin")

	_, hidden := err.Payload(false)["hint"]
	assert.False(t, hidden)
	assert.Equal(t, "Check the `admin` scope", err.Payload(true)["hint"])

	_, empty := InvalidClient().Payload(true)["hint"]
	assert.False(t, empty, "no hint key when the error has none")
}

func TestIs_MatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("grant failed: %w", InvalidCredentials())

	assert.ErrorIs(t, wrapped, InvalidGrant("anything"))
	assert.NotErrorIs(t, wrapped, InvalidClient())
}

func TestWithHint_DoesNotMutate(t *testing.T) {
	base := InvalidGrant("")
	hinted := base.WithHint("Authorization code has expired")

	assert.Empty(t, base.Hint)
	assert.Equal(t, "Authorization code has expired", hinted.Hint)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInvalidScope, CodeOf(fmt.Errorf("wrap: %w", InvalidScope("x"))))
	assert.Equal(t, CodeServerError, CodeOf(errors.New("boom")))

	oe, ok := As(InvalidClient())
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, oe.Status)
}
