package models

import (
	"strings"
	"time"
)

// Grant type identifiers
const (
	GrantTypeClientCredentials = "client_credentials"
	GrantTypePassword          = "password"
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
	GrantTypePersonalAccess    = "personal_access"
)

// Client is a registered API client. A client without a secret is public.
type Client struct {
	ID                   string      `gorm:"primaryKey;size:36"`
	UserID               *string     `gorm:"index"` // Owning user, nil for machine clients
	Name                 string      `gorm:"not null"`
	Secret               string      // bcrypt hash; empty for public clients
	Scopes               string      // space-separated allowed scopes, empty = any registered scope
	GrantTypes           string      // space-separated allowed grant types, empty = all
	RedirectURIs         StringArray `gorm:"type:json"`
	PersonalAccessClient bool        `gorm:"not null;default:false"`
	PasswordClient       bool        `gorm:"not null;default:false"`
	Revoked              bool        `gorm:"not null;default:false;index"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Confidential reports whether the client holds a secret
func (c *Client) Confidential() bool {
	return c.Secret != ""
}

// AllowedScopes returns the scopes the client may request, nil meaning no restriction
func (c *Client) AllowedScopes() []string {
	return strings.Fields(c.Scopes)
}

// HandlesGrant reports whether the client may use grantType.
// The password and personal access grants additionally require the matching
// client flag.
func (c *Client) HandlesGrant(grantType string) bool {
	if grantType == GrantTypePassword && !c.PasswordClient {
		return false
	}
	if grantType == GrantTypePersonalAccess && !c.PersonalAccessClient {
		return false
	}
	if strings.TrimSpace(c.GrantTypes) == "" {
		return true
	}
	for _, g := range strings.Fields(c.GrantTypes) {
		if g == grantType {
			return true
		}
	}
	return false
}

// HasRedirectURI reports whether uri is registered for the client
func (c *Client) HasRedirectURI(uri string) bool {
	return c.RedirectURIs.Contains(uri)
}

func (Client) TableName() string {
	return "oauth_clients"
}
