package store

import (
	"context"
	"fmt"
	"log"

	"github.com/go-authgate/tokenserver/internal/core"
	"github.com/go-authgate/tokenserver/internal/models"
	"github.com/go-authgate/tokenserver/internal/util"

	"github.com/google/uuid"
)

// SeededClient describes a client created by SeedDefaults. Secret is the
// plaintext and is only available at creation time.
type SeededClient struct {
	Client *models.Client
	Secret string
}

// SeedDefaults creates a personal access client and a password grant client
// when the clients table is empty. Secrets are hashed with hasher and logged
// once so the operator can record them.
func (s *Store) SeedDefaults(ctx context.Context, hasher core.Hasher) ([]SeededClient, error) {
	count, err := s.CountClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count clients: %w", err)
	}
	if count > 0 {
		return nil, nil
	}

	templates := []models.Client{
		{Name: "Personal Access Client", PersonalAccessClient: true},
		{Name: "Password Grant Client", PasswordClient: true},
	}

	seeded := make([]SeededClient, 0, len(templates))
	for i := range templates {
		client := templates[i]
		secret, err := util.CryptoRandomString(40)
		if err != nil {
			return nil, err
		}
		hash, err := hasher.Hash(secret)
		if err != nil {
			return nil, err
		}
		client.ID = uuid.New().String()
		client.Secret = hash
		if err := s.CreateClient(ctx, &client); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", client.Name, err)
		}
		log.Printf("[Store] Created %s: %s", client.Name, client.ID)
		log.Printf("[Store] Client Secret (save this): %s", secret)
		seeded = append(seeded, SeededClient{Client: &client, Secret: secret})
	}
	return seeded, nil
}
