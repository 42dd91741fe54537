package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-authgate/tokenserver/internal/core"
	"github.com/go-authgate/tokenserver/internal/models"
	"github.com/go-authgate/tokenserver/internal/store"
)

// LocalAuthProvider checks resource owner credentials against the users table
type LocalAuthProvider struct {
	users     core.UserStore
	hasher    core.Hasher
	dummyHash string
}

// NewLocalAuthProvider creates a new local authentication provider. A digest
// of a throwaway password is computed up front so that unknown usernames cost
// the same hash comparison as known ones.
func NewLocalAuthProvider(users core.UserStore, hasher core.Hasher) (*LocalAuthProvider, error) {
	dummy, err := hasher.Hash("timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &LocalAuthProvider{users: users, hasher: hasher, dummyHash: dummy}, nil
}

// Authenticate verifies credentials against local database
func (p *LocalAuthProvider) Authenticate(
	ctx context.Context,
	username, password string,
) (*models.User, error) {
	user, err := p.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			p.hasher.Verify(password, p.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !p.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Name returns provider name for logging
func (p *LocalAuthProvider) Name() string {
	return "local"
}
