package token

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IDTokenClaims are the OIDC ID token claims emitted by NewIDTokenResponse
type IDTokenClaims struct {
	AtHash string `json:"at_hash"`
	jwt.RegisteredClaims
}

// NewIDTokenResponse returns a bearer response type that appends a signed
// "id_token" for user-bound tokens. Machine tokens get no id_token.
func NewIDTokenResponse(p *LocalTokenProvider) BearerTokenResponse {
	return BearerTokenResponse{
		ExtraParams: func(issued *Issued) (map[string]any, error) {
			if issued.AccessToken.UserID == nil {
				return nil, nil
			}
			idToken, err := p.GenerateIDToken(issued)
			if err != nil {
				return nil, err
			}
			return map[string]any{"id_token": idToken}, nil
		},
	}
}

// GenerateIDToken creates a signed HS256 ID token for the issued access token.
// ID tokens are not stored in the database.
func (p *LocalTokenProvider) GenerateIDToken(issued *Issued) (string, error) {
	now := p.clock.Now()
	claims := IDTokenClaims{
		AtHash: ComputeAtHash(issued.AccessTokenString),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        issued.AccessToken.ID,
			Issuer:    p.config.BaseURL,
			Subject:   *issued.AccessToken.UserID,
			Audience:  jwt.ClaimStrings{issued.AccessToken.ClientID},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(issued.ExpiresIn) * time.Second)),
		},
	}
	return p.sign(claims)
}

// ComputeAtHash computes the at_hash claim value per OIDC Core 1.0 §3.3.2.11.
// at_hash = base64url( left-most 128 bits of SHA-256( ASCII(access_token) ) )
func ComputeAtHash(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return base64.RawURLEncoding.EncodeToString(sum[:16])
}
