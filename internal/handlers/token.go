package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-authgate/tokenserver/internal/middleware"
	"github.com/go-authgate/tokenserver/internal/oauth"
	"github.com/go-authgate/tokenserver/internal/scope"
	"github.com/go-authgate/tokenserver/internal/services"

	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	server    *services.Server
	clients   *services.ClientService
	tokens    *services.TokenService
	scopes    *scope.Registry
	hideHints bool
}

func NewTokenHandler(
	server *services.Server,
	clients *services.ClientService,
	tokens *services.TokenService,
	scopes *scope.Registry,
	hideHints bool,
) *TokenHandler {
	return &TokenHandler{
		server:    server,
		clients:   clients,
		tokens:    tokens,
		scopes:    scopes,
		hideHints: hideHints,
	}
}

// clientCredentials prefers HTTP Basic (RFC 6749 §2.3.1) and falls back to
// client_id / client_secret form parameters. Basic credentials are
// form-urlencoded before base64, so both halves are unescaped.
func clientCredentials(c *gin.Context) (id, secret string, usedBasic bool) {
	if rawID, rawSecret, ok := c.Request.BasicAuth(); ok {
		return unescapeCredential(rawID), unescapeCredential(rawSecret), true
	}
	return c.PostForm("client_id"), c.PostForm("client_secret"), false
}

// unescapeCredential decodes a form-urlencoded value, keeping the raw value
// when it is not valid encoding.
func unescapeCredential(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}

// Token godoc
//
//	@Summary		Request access token
//	@Description	Issue tokens for the client_credentials, password, authorization_code and refresh_token grants (RFC 6749)
//	@Tags			OAuth
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string																				true	"Grant type"
//	@Param			client_id		formData	string																				false	"Client ID (when not using HTTP Basic)"
//	@Param			client_secret	formData	string																				false	"Client secret (when not using HTTP Basic)"
//	@Param			scope			formData	string																				false	"Space-separated scopes"
//	@Param			username		formData	string																				false	"Username (password grant)"
//	@Param			password		formData	string																				false	"Password (password grant)"
//	@Param			code			formData	string																				false	"Authorization code (authorization_code grant)"
//	@Param			redirect_uri	formData	string																				false	"Redirect URI (authorization_code grant)"
//	@Param			code_verifier	formData	string																				false	"PKCE verifier (authorization_code grant)"
//	@Param			refresh_token	formData	string																				false	"Refresh token (refresh_token grant)"
//	@Success		200				{object}	object{token_type=string,expires_in=int,access_token=string,refresh_token=string}	"Tokens issued"
//	@Failure		400				{object}	object{error=string,error_description=string,message=string}						"invalid_request, invalid_grant, invalid_scope, unauthorized_client, unsupported_grant_type"
//	@Failure		401				{object}	object{error=string,error_description=string,message=string}						"invalid_client"
//	@Failure		429				{object}	object{error=string,error_description=string}										"Rate limit exceeded"
//	@Failure		500				{object}	object{error=string,error_description=string,message=string}						"server_error"
//	@Router			/oauth/token [post]
func (h *TokenHandler) Token(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		writeOAuthError(c,
			oauth.InvalidRequest("grant_type").WithHint("The request body could not be parsed"),
			h.hideHints, false)
		return
	}

	clientID, clientSecret, usedBasic := clientCredentials(c)
	resp, err := h.server.RespondToAccessTokenRequest(c.Request.Context(), &services.TokenRequest{
		GrantType:    c.PostForm("grant_type"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       strings.Fields(c.PostForm("scope")),
		Params:       c.Request.PostForm,
	})
	if err != nil {
		writeOAuthError(c, err, h.hideHints, usedBasic)
		return
	}

	writeTokenResponse(c, resp)
}

// Revoke godoc
//
//	@Summary		Revoke token
//	@Description	Revoke an access token or refresh token owned by the authenticated client (RFC 7009). Unknown tokens still return 200.
//	@Tags			OAuth
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			token			formData	string											true	"Token to revoke (access token or refresh token)"
//	@Param			token_type_hint	formData	string											false	"Ignored; both token kinds are tried"
//	@Success		200				{string}	string											"Token revoked (or unknown)"
//	@Failure		400				{object}	object{error=string,error_description=string}	"token parameter missing"
//	@Failure		401				{object}	object{error=string,error_description=string}	"invalid_client"
//	@Router			/oauth/token/revoke [post]
func (h *TokenHandler) Revoke(c *gin.Context) {
	clientID, clientSecret, usedBasic := clientCredentials(c)
	client, err := h.clients.AuthenticateClient(c.Request.Context(), clientID, clientSecret)
	if err != nil {
		writeOAuthError(c, err, h.hideHints, usedBasic)
		return
	}

	tokenString := c.PostForm("token")
	if tokenString == "" {
		writeOAuthError(c, oauth.InvalidRequest("token"), h.hideHints, usedBasic)
		return
	}

	// RFC 7009 §2.2: unknown or foreign tokens are not an error
	if err := h.tokens.RevokeToken(c.Request.Context(), client, tokenString); err != nil {
		writeOAuthError(c, oauth.ServerError(""), h.hideHints, usedBasic)
		return
	}
	c.Status(http.StatusOK)
}

// TokenInfo godoc
//
//	@Summary		Validate access token
//	@Description	Verify an access token and return what it grants
//	@Tags			OAuth
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string																						true	"Bearer token (format: 'Bearer <token>')"
//	@Success		200				{object}	object{active=bool,user_id=string,client_id=string,scope=string,exp=int,subject_type=string}	"Token is valid"
//	@Failure		401				{object}	object{error=string,error_description=string}												"missing_token, invalid_token"
//	@Router			/oauth/tokeninfo [get]
func (h *TokenHandler) TokenInfo(c *gin.Context) {
	tokenString, ok := middleware.BearerToken(c)
	if !ok {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "missing_token",
			"error_description": "Bearer token required",
		})
		return
	}

	record, err := h.tokens.ValidateAccessToken(c.Request.Context(), tokenString)
	if err != nil {
		c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "invalid_token",
			"error_description": "The access token is invalid, expired or revoked",
		})
		return
	}

	// Machine tokens from client_credentials have no user
	subjectType, userID := "client", ""
	if record.UserID != nil {
		subjectType, userID = "user", *record.UserID
	}

	c.JSON(http.StatusOK, gin.H{
		"active":       true,
		"user_id":      userID,
		"client_id":    record.ClientID,
		"scope":        strings.Join(record.Scopes, " "),
		"exp":          record.ExpiresAt.Unix(),
		"subject_type": subjectType,
	})
}

// Scopes godoc
//
//	@Summary		List scopes
//	@Description	Every scope a token may carry, in registration order
//	@Tags			OAuth
//	@Produce		json
//	@Success		200	{array}	scope.Scope
//	@Router			/oauth/scopes [get]
func (h *TokenHandler) Scopes(c *gin.Context) {
	c.JSON(http.StatusOK, h.scopes.Scopes())
}
