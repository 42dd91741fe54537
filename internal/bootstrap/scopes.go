package bootstrap

import (
	"log"

	"github.com/go-authgate/tokenserver/internal/config"
	"github.com/go-authgate/tokenserver/internal/scope"
)

// initializeScopeRegistry loads SCOPES and DEFAULT_SCOPES in declared order
func initializeScopeRegistry(cfg *config.Config) *scope.Registry {
	r := scope.NewRegistry()
	r.TokensCanOrdered(toScopes(cfg.Scopes)...)
	r.SetDefaultScopeOrdered(toScopes(cfg.DefaultScopes)...)
	r.UseDefaultScopes(cfg.UseDefaultScopes)

	log.Printf("Scopes registered: %v (defaults: %v, enabled: %t)",
		r.ScopeIDs(), r.DefaultScopeIDs(), r.DefaultScopesEnabled())
	return r
}

func toScopes(specs []config.ScopeSpec) []scope.Scope {
	out := make([]scope.Scope, 0, len(specs))
	for _, s := range specs {
		out = append(out, scope.Scope{ID: s.ID, Description: s.Description})
	}
	return out
}
