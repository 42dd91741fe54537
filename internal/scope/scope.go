// Package scope holds the set of scopes tokens may carry and resolves the
// scopes requested by a grant against it.
package scope

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrUnknownScope is returned when a requested scope is not registered
	ErrUnknownScope = errors.New("scope is not registered")

	// ErrScopeNotAllowed is returned when a client requests a scope outside
	// its allowed set
	ErrScopeNotAllowed = errors.New("scope is not allowed for client")
)

// Scope is a named permission a token can carry
type Scope struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Registry is the universe of known scopes plus the default-scope subset.
// It is safe for concurrent use; writes are expected at start-up only.
type Registry struct {
	mu          sync.RWMutex
	scopes      []Scope
	index       map[string]int
	defaults    []Scope
	useDefaults bool
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// TokensCan registers scopes from an id → description map. Map entries are
// registered in id order; use TokensCanOrdered to control the order.
func (r *Registry) TokensCan(scopes map[string]string) {
	r.TokensCanOrdered(fromMap(scopes)...)
}

// TokensCanOrdered registers scopes in the given order. Registering an
// existing id replaces its description and keeps its position.
func (r *Registry) TokensCanOrdered(scopes ...Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range scopes {
		if i, ok := r.index[s.ID]; ok {
			r.scopes[i] = s
			continue
		}
		r.index[s.ID] = len(r.scopes)
		r.scopes = append(r.scopes, s)
	}
}

// SetDefaultScope replaces the default-scope set from a map, ordered by id.
// Callers that need registration order use SetDefaultScopeOrdered.
func (r *Registry) SetDefaultScope(scopes map[string]string) {
	r.SetDefaultScopeOrdered(fromMap(scopes)...)
}

// SetDefaultScopeOrdered replaces the default-scope set, keeping the given order
func (r *Registry) SetDefaultScopeOrdered(scopes ...Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults = dedupe(scopes)
}

// UseDefaultScopes toggles default-scope mode
func (r *Registry) UseDefaultScopes(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.useDefaults = enabled
}

// DefaultScopesEnabled reports whether default-scope mode is on
func (r *Registry) DefaultScopesEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.useDefaults
}

// HasScope reports whether id is registered. Default scopes count as
// registered only while default-scope mode is enabled.
func (r *Registry) HasScope(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hasScope(id)
}

func (r *Registry) hasScope(id string) bool {
	if _, ok := r.index[id]; ok {
		return true
	}
	if !r.useDefaults {
		return false
	}
	for _, s := range r.defaults {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Scopes returns every registered scope in registration order
func (r *Registry) Scopes() []Scope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Scope, len(r.scopes))
	copy(out, r.scopes)
	return out
}

// ScopeIDs returns every registered scope id in registration order
func (r *Registry) ScopeIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.scopes))
	for i, s := range r.scopes {
		ids[i] = s.ID
	}
	return ids
}

// DefaultScopeIDs returns the default-scope ids in their configured order
func (r *Registry) DefaultScopeIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultIDs()
}

func (r *Registry) defaultIDs() []string {
	ids := make([]string, len(r.defaults))
	for i, s := range r.defaults {
		ids[i] = s.ID
	}
	return ids
}

// Resolve returns the scopes a token is granted for the request.
//
// An empty request yields the default set when default mode is enabled and
// no scopes otherwise. Explicit requests keep the caller's order with
// duplicates removed; every id must be known and, when allowed is non-empty,
// listed in allowed.
func (r *Registry) Resolve(requested, allowed []string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(requested) == 0 {
		if r.useDefaults {
			return r.defaultIDs(), nil
		}
		return []string{}, nil
	}

	var permitted map[string]struct{}
	if len(allowed) > 0 {
		permitted = make(map[string]struct{}, len(allowed))
		for _, id := range allowed {
			permitted[id] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(requested))
	out := make([]string, 0, len(requested))
	for _, id := range requested {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if !r.hasScope(id) {
			return nil, &Error{Scope: id, Err: ErrUnknownScope}
		}
		if permitted != nil {
			if _, ok := permitted[id]; !ok {
				return nil, &Error{Scope: id, Err: ErrScopeNotAllowed}
			}
		}
		out = append(out, id)
	}
	return out, nil
}

// Reset returns the registry to its empty state with default mode disabled
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopes = nil
	r.index = make(map[string]int)
	r.defaults = nil
	r.useDefaults = false
}

// Error names the scope that failed resolution
type Error struct {
	Scope string
	Err   error
}

func (e *Error) Error() string {
	return e.Err.Error() + ": " + e.Scope
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fromMap(m map[string]string) []Scope {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Scope, len(ids))
	for i, id := range ids {
		out[i] = Scope{ID: id, Description: m[id]}
	}
	return out
}

func dedupe(scopes []Scope) []Scope {
	seen := make(map[string]struct{}, len(scopes))
	out := make([]Scope, 0, len(scopes))
	for _, s := range scopes {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}
