package token

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/go-authgate/tokenserver/internal/models"
)

// Issued is everything the issuer produced for one successful grant
type Issued struct {
	Client             *models.Client
	AccessToken        *models.AccessToken
	RefreshToken       *models.RefreshToken // nil when the grant issues none
	AccessTokenString  string
	RefreshTokenString string
	ExpiresIn          int64 // access token lifetime in seconds
}

// Response is the success body of the token endpoint. Standard fields are
// always encoded first, in a fixed order; Extra follows with sorted keys.
type Response struct {
	TokenType    string
	ExpiresIn    int64
	AccessToken  string
	RefreshToken string
	Extra        map[string]any
}

var reservedFields = map[string]struct{}{
	"token_type":    {},
	"expires_in":    {},
	"access_token":  {},
	"refresh_token": {},
}

func (r *Response) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	write := func(key string, value any) error {
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(encoded)
		return nil
	}

	if err := write("token_type", r.TokenType); err != nil {
		return nil, err
	}
	if err := write("expires_in", r.ExpiresIn); err != nil {
		return nil, err
	}
	if err := write("access_token", r.AccessToken); err != nil {
		return nil, err
	}
	if r.RefreshToken != "" {
		if err := write("refresh_token", r.RefreshToken); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		if _, reserved := reservedFields[k]; !reserved {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := write(k, r.Extra[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ResponseType builds the success body from an issuance
type ResponseType interface {
	BuildResponse(issued *Issued) (*Response, error)
}

// BearerTokenResponse is the default response type. ExtraParams, when set,
// contributes additional fields; keys colliding with standard fields are
// ignored.
type BearerTokenResponse struct {
	ExtraParams func(issued *Issued) (map[string]any, error)
}

func (b BearerTokenResponse) BuildResponse(issued *Issued) (*Response, error) {
	resp := &Response{
		TokenType:    TokenTypeBearer,
		ExpiresIn:    issued.ExpiresIn,
		AccessToken:  issued.AccessTokenString,
		RefreshToken: issued.RefreshTokenString,
	}
	if b.ExtraParams == nil {
		return resp, nil
	}
	extra, err := b.ExtraParams(issued)
	if err != nil {
		return nil, err
	}
	resp.Extra = extra
	return resp, nil
}
