package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-authgate/tokenserver/internal/core"
	"github.com/go-authgate/tokenserver/internal/models"
	"github.com/go-authgate/tokenserver/internal/oauth"
	"github.com/go-authgate/tokenserver/internal/store"
	"github.com/go-authgate/tokenserver/internal/util"

	"github.com/google/uuid"
)

var ErrClientNameRequired = errors.New("client name is required")

// ClientRepository is the storage the client service needs
type ClientRepository interface {
	core.ClientStore
	CreateClient(ctx context.Context, client *models.Client) error
	RevokeClient(ctx context.Context, id string) error
	DeleteClient(ctx context.Context, id string) error
}

type ClientService struct {
	store     ClientRepository
	hasher    core.Hasher
	dummyHash string
}

func NewClientService(s ClientRepository, hasher core.Hasher) (*ClientService, error) {
	dummy, err := hasher.Hash("timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &ClientService{store: s, hasher: hasher, dummyHash: dummy}, nil
}

type CreateClientRequest struct {
	Name                 string
	UserID               *string
	Scopes               string
	GrantTypes           string
	RedirectURIs         []string
	Confidential         bool
	PersonalAccessClient bool
	PasswordClient       bool
}

type ClientResponse struct {
	*models.Client
	ClientSecretPlain string // Only populated on creation of confidential clients
}

// CreateClient provisions a client. Confidential clients get a random
// secret that is returned once in plaintext and stored hashed.
func (s *ClientService) CreateClient(
	ctx context.Context,
	req CreateClientRequest,
) (*ClientResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrClientNameRequired
	}

	client := &models.Client{
		ID:                   uuid.New().String(),
		UserID:               req.UserID,
		Name:                 strings.TrimSpace(req.Name),
		Scopes:               strings.Join(strings.Fields(req.Scopes), " "),
		GrantTypes:           strings.Join(strings.Fields(req.GrantTypes), " "),
		RedirectURIs:         models.StringArray(req.RedirectURIs),
		PersonalAccessClient: req.PersonalAccessClient,
		PasswordClient:       req.PasswordClient,
	}

	var plain string
	if req.Confidential {
		secret, err := util.CryptoRandomString(40)
		if err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(secret)
		if err != nil {
			return nil, err
		}
		client.Secret = hash
		plain = secret
	}

	if err := s.store.CreateClient(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &ClientResponse{Client: client, ClientSecretPlain: plain}, nil
}

// Authenticate validates the presented client credentials for grantType.
// Unknown, revoked and wrong-secret clients all fail with the same
// invalid_client error.
func (s *ClientService) Authenticate(
	ctx context.Context,
	clientID, secret, grantType string,
) (*models.Client, error) {
	client, err := s.authenticate(ctx, clientID, secret)
	if err != nil {
		return nil, err
	}
	// Public clients have nothing to prove for this grant.
	if grantType == models.GrantTypeClientCredentials && !client.Confidential() {
		return nil, oauth.InvalidClient()
	}
	if !client.HandlesGrant(grantType) {
		return nil, oauth.UnauthorizedClient()
	}
	return client, nil
}

// AuthenticateClient checks credentials without any grant restriction.
// Used by endpoints such as revocation that act on behalf of a client.
func (s *ClientService) AuthenticateClient(
	ctx context.Context,
	clientID, secret string,
) (*models.Client, error) {
	return s.authenticate(ctx, clientID, secret)
}

func (s *ClientService) authenticate(
	ctx context.Context,
	clientID, secret string,
) (*models.Client, error) {
	if clientID == "" {
		return nil, oauth.InvalidClient()
	}

	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			s.hasher.Verify(secret, s.dummyHash)
			return nil, oauth.InvalidClient()
		}
		log.Printf("[Client] Failed to load client %s: %v", clientID, err)
		return nil, oauth.ServerError("")
	}

	if client.Confidential() && !s.hasher.Verify(secret, client.Secret) {
		return nil, oauth.InvalidClient()
	}
	if client.Revoked {
		return nil, oauth.InvalidClient()
	}
	return client, nil
}

func (s *ClientService) GetClient(ctx context.Context, clientID string) (*models.Client, error) {
	return s.store.GetClient(ctx, clientID)
}

// RevokeClient blocks the client from authenticating
func (s *ClientService) RevokeClient(ctx context.Context, clientID string) error {
	return s.store.RevokeClient(ctx, clientID)
}

// DeleteClient removes the client and every token issued to it
func (s *ClientService) DeleteClient(ctx context.Context, clientID string) error {
	return s.store.DeleteClient(ctx, clientID)
}
