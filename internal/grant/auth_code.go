package grant

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"regexp"

	"github.com/go-authgate/tokenserver/internal/core"
	"github.com/go-authgate/tokenserver/internal/models"
	"github.com/go-authgate/tokenserver/internal/oauth"
	"github.com/go-authgate/tokenserver/internal/store"
	"github.com/go-authgate/tokenserver/internal/util"
)

// RFC 7636 §4.1: 43-128 unreserved characters
var codeVerifierPattern = regexp.MustCompile(`^[A-Za-z0-9\-._~]{43,128}$`)

// AuthCodeReader loads authorization codes by id
type AuthCodeReader interface {
	GetAuthCode(ctx context.Context, id string) (*models.AuthCode, error)
}

// AuthorizationCode redeems a single-use authorization code. The code is
// only marked consumed when the issuer writes the new tokens.
type AuthorizationCode struct {
	codes AuthCodeReader
	clock core.Clock
}

func NewAuthorizationCode(codes AuthCodeReader, clock core.Clock) *AuthorizationCode {
	return &AuthorizationCode{codes: codes, clock: clock}
}

func (g *AuthorizationCode) Identifier() string {
	return models.GrantTypeAuthorizationCode
}

func (g *AuthorizationCode) Evaluate(ctx context.Context, req *Request) (*Intent, error) {
	plain, err := requireParam(req, "code")
	if err != nil {
		return nil, err
	}

	code, err := g.codes.GetAuthCode(ctx, util.SHA256Hex(plain))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, oauth.InvalidGrant("Authorization code is invalid")
		}
		return nil, serverError("load authorization code", err)
	}

	switch {
	case code.Revoked:
		return nil, oauth.InvalidGrant("Authorization code has been revoked")
	case code.IsExpiredAt(g.clock.Now()):
		return nil, oauth.InvalidGrant("Authorization code has expired")
	case code.ClientID != req.Client.ID:
		return nil, oauth.InvalidGrant("Authorization code was not issued to this client")
	}

	if code.RedirectURI != "" && req.Param("redirect_uri") != code.RedirectURI {
		return nil, oauth.InvalidRequest("redirect_uri").WithHint("Invalid redirect URI")
	}

	if code.CodeChallenge != "" {
		if err := verifyCodeChallenge(code, req.Param("code_verifier")); err != nil {
			return nil, err
		}
	}

	scopes := []string(code.Scopes)
	if scopes == nil {
		scopes = []string{}
	}
	return &Intent{
		GrantType:         g.Identifier(),
		Client:            req.Client,
		UserID:            stringPtr(code.UserID),
		Scopes:            scopes,
		IssueRefreshToken: true,
		ConsumeAuthCodeID: code.ID,
	}, nil
}

func verifyCodeChallenge(code *models.AuthCode, verifier string) error {
	if verifier == "" {
		return oauth.InvalidRequest("code_verifier")
	}
	if !codeVerifierPattern.MatchString(verifier) {
		return oauth.InvalidRequest("code_verifier").
			WithHint("Code verifier must follow the specifications of RFC-7636.")
	}

	var computed string
	switch code.CodeChallengeMethod {
	case models.CodeChallengeMethodPlain, "":
		computed = verifier
	case models.CodeChallengeMethodS256:
		sum := sha256.Sum256([]byte(verifier))
		computed = base64.RawURLEncoding.EncodeToString(sum[:])
	default:
		return oauth.ServerError("Unsupported code challenge method")
	}

	if subtle.ConstantTimeCompare([]byte(computed), []byte(code.CodeChallenge)) != 1 {
		return oauth.InvalidGrant("Failed to verify `code_verifier`.")
	}
	return nil
}
