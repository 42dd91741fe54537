package bootstrap

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-authgate/tokenserver/internal/config"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateRateLimitConfig(cfg); err != nil {
		return fmt.Errorf("invalid rate limit configuration: %w", err)
	}
	if err := validateScopeConfig(cfg); err != nil {
		return fmt.Errorf("invalid scope configuration: %w", err)
	}
	return nil
}

// validateRateLimitConfig checks that the limiter can actually be built
func validateRateLimitConfig(cfg *config.Config) error {
	if !cfg.EnableRateLimit {
		return nil
	}
	if cfg.TokenRateLimit <= 0 {
		return errors.New("TOKEN_RATE_LIMIT must be positive when ENABLE_RATE_LIMIT=true")
	}
	if cfg.RateLimitStore == config.RateLimitStoreRedis && cfg.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required when RATE_LIMIT_STORE=redis")
	}
	return nil
}

// validateScopeConfig rejects duplicate scope ids. Enabling default scopes
// without defining any is allowed but almost certainly a mistake.
func validateScopeConfig(cfg *config.Config) error {
	seen := make(map[string]struct{}, len(cfg.Scopes))
	for _, s := range cfg.Scopes {
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("scope %q is defined more than once in SCOPES", s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	if cfg.UseDefaultScopes && len(cfg.DefaultScopes) == 0 {
		log.Printf("USE_DEFAULT_SCOPES is enabled but DEFAULT_SCOPES is empty")
	}
	return nil
}
