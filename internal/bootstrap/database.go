package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/go-authgate/tokenserver/internal/config"
	"github.com/go-authgate/tokenserver/internal/core"
	"github.com/go-authgate/tokenserver/internal/store"
)

// initializeDatabase opens the store and checks it answers within DBInitTimeout
func initializeDatabase(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	db, err := store.New(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DBInitTimeout)
	defer cancel()

	if err := db.Health(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database is not reachable: %w", err)
	}
	log.Printf("Database initialized (driver: %s)", cfg.DatabaseDriver)
	return db, nil
}

// seedDatabase creates the default clients on an empty database
func seedDatabase(
	ctx context.Context,
	cfg *config.Config,
	db *store.Store,
	hasher core.Hasher,
) error {
	if !cfg.SeedDefaultClient {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DBInitTimeout)
	defer cancel()

	if _, err := db.SeedDefaults(ctx, hasher); err != nil {
		return fmt.Errorf("failed to seed default clients: %w", err)
	}
	return nil
}
