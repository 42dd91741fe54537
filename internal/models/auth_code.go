package models

import "time"

// PKCE challenge methods (RFC 7636)
const (
	CodeChallengeMethodPlain = "plain"
	CodeChallengeMethodS256  = "S256"
)

// AuthCode is a short-lived, single-use authorization code. ID holds the
// SHA256 of the plain code handed to the client.
type AuthCode struct {
	ID                  string      `gorm:"primaryKey;size:100"`
	UserID              string      `gorm:"not null;index"`
	ClientID            string      `gorm:"not null;index"`
	Scopes              StringArray `gorm:"type:json"`
	RedirectURI         string      `gorm:"not null"`
	CodeChallenge       string      `gorm:"default:''"` // empty = PKCE not used
	CodeChallengeMethod string      `gorm:"default:''"`
	Revoked             bool        `gorm:"not null;default:false"`
	ExpiresAt           time.Time
	CreatedAt           time.Time
}

func (a *AuthCode) IsExpiredAt(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

func (AuthCode) TableName() string {
	return "oauth_auth_codes"
}
