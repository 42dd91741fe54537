// Package grant evaluates token requests for each OAuth2 grant type and turns
// them into issuance intents. Grants never write to storage; persisting the
// result is left to the issuer so that a failed evaluation has no side effects.
package grant

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"

	"github.com/go-authgate/tokenserver/internal/models"
	"github.com/go-authgate/tokenserver/internal/oauth"
	"github.com/go-authgate/tokenserver/internal/scope"
)

// Request is an authenticated token request
type Request struct {
	GrantType string
	Client    *models.Client
	Scopes    []string   // requested scopes, in request order
	Params    url.Values // raw form parameters
}

// Param returns the first value of a form parameter
func (r *Request) Param(name string) string {
	if r.Params == nil {
		return ""
	}
	return r.Params.Get(name)
}

// Intent describes the tokens a successful evaluation asks the issuer to mint
type Intent struct {
	GrantType         string
	Client            *models.Client
	UserID            *string // nil for machine tokens
	Scopes            []string
	Name              *string // personal access tokens only
	IssueRefreshToken bool

	// At most one of these is set; the issuer consumes the artifact in the
	// same transaction that writes the new tokens.
	ConsumeAuthCodeID    string
	RotateRefreshTokenID string
}

// Grant is one grant type
type Grant interface {
	Identifier() string
	Evaluate(ctx context.Context, req *Request) (*Intent, error)
}

// Registry dispatches requests to grants by grant_type
type Registry struct {
	mu     sync.RWMutex
	grants map[string]Grant
}

func NewRegistry(grants ...Grant) *Registry {
	r := &Registry{grants: make(map[string]Grant, len(grants))}
	for _, g := range grants {
		r.Register(g)
	}
	return r
}

// Register adds g, replacing any grant with the same identifier
func (r *Registry) Register(g Grant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants[g.Identifier()] = g
}

func (r *Registry) Get(grantType string) (Grant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.grants[grantType]
	return g, ok
}

// Identifiers returns the registered grant types, sorted
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.grants))
	for id := range r.grants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// resolveScopes resolves the request's scopes against the registry and the
// client's allowed set, mapping failures to invalid_scope.
func resolveScopes(registry *scope.Registry, req *Request) ([]string, error) {
	granted, err := registry.Resolve(req.Scopes, req.Client.AllowedScopes())
	if err != nil {
		var scopeErr *scope.Error
		if errors.As(err, &scopeErr) {
			return nil, oauth.InvalidScope(scopeErr.Scope)
		}
		return nil, serverError("resolve scopes", err)
	}
	return granted, nil
}

// requireParam returns the named parameter or invalid_request when missing
func requireParam(req *Request, name string) (string, error) {
	v := req.Param(name)
	if v == "" {
		return "", oauth.InvalidRequest(name)
	}
	return v, nil
}

func serverError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(oauth.ServerError(""), err))
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
