package models

import (
	"time"
)

// AccessToken is the persisted record behind an issued bearer token
type AccessToken struct {
	ID        string      `gorm:"primaryKey;size:100"`
	UserID    *string     `gorm:"index"` // nil for client_credentials tokens
	ClientID  string      `gorm:"not null;index"`
	Name      *string     // only set for personal access tokens
	Scopes    StringArray `gorm:"type:json"`
	Revoked   bool        `gorm:"not null;default:false;index"`
	ExpiresAt time.Time   `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExpiredAt reports whether the token has expired at now
func (t *AccessToken) IsExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *AccessToken) IsExpired() bool {
	return t.IsExpiredAt(time.Now())
}

// IsValidAt reports whether the token can still be used at now
func (t *AccessToken) IsValidAt(now time.Time) bool {
	return !t.Revoked && !t.IsExpiredAt(now)
}

// Can reports whether the token carries scope, "*" granting everything
func (t *AccessToken) Can(scope string) bool {
	return t.Scopes.Contains("*") || t.Scopes.Contains(scope)
}

func (AccessToken) TableName() string {
	return "oauth_access_tokens"
}

// RefreshToken is paired one-to-one with the access token it was issued with
type RefreshToken struct {
	ID            string    `gorm:"primaryKey;size:100"`
	AccessTokenID string    `gorm:"uniqueIndex;size:100;not null"`
	Revoked       bool      `gorm:"not null;default:false"`
	ExpiresAt     time.Time `gorm:"index"`
}

func (t *RefreshToken) IsExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (RefreshToken) TableName() string {
	return "oauth_refresh_tokens"
}
