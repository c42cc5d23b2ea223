package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Scopes is an in-memory scope registry guarded by a read/write mutex.
type Scopes struct {
	mu     sync.RWMutex
	scopes map[string]*Scope
}

// NewScopes creates an empty scope registry.
func NewScopes() *Scopes {
	return &Scopes{scopes: make(map[string]*Scope)}
}

// Create registers a new scope. The required key set is normalized to
// lowercase, deduplicated, and immutable afterwards.
func (s *Scopes) Create(id string, requiredKeys []string) (*Scope, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput("scope id is required")
	}

	seen := make(map[string]bool, len(requiredKeys))
	keys := make([]string, 0, len(requiredKeys))
	for _, k := range requiredKeys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			return nil, ErrInvalidInput("required metadata key must not be empty")
		}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.scopes[id]; exists {
		return nil, ErrInvalidInput(fmt.Sprintf("scope already exists: %s", id))
	}

	scope := &Scope{
		ID:           id,
		RequiredKeys: keys,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	s.scopes[id] = scope
	return cloneScope(scope), nil
}

// Get retrieves a scope by id.
func (s *Scopes) Get(id string) (*Scope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scope, ok := s.scopes[id]
	if !ok {
		return nil, ErrNotFound("scope", id)
	}
	return cloneScope(scope), nil
}

// List returns all scopes sorted by id.
func (s *Scopes) List() []*Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Scope, 0, len(s.scopes))
	for _, scope := range s.scopes {
		out = append(out, cloneScope(scope))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Deactivate stops a scope from accepting new observations. Accumulated
// records are preserved.
func (s *Scopes) Deactivate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope, ok := s.scopes[id]
	if !ok {
		return ErrNotFound("scope", id)
	}
	scope.Active = false
	return nil
}

// RecordOptionalKeys accumulates optional metadata key names seen for a
// scope. Required keys are never added here.
func (s *Scopes) RecordOptionalKeys(id string, keys []string) {
	if len(keys) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	scope, ok := s.scopes[id]
	if !ok {
		return
	}

	known := make(map[string]bool, len(scope.OptionalKeys))
	for _, k := range scope.OptionalKeys {
		known[k] = true
	}
	for _, k := range scope.RequiredKeys {
		known[k] = true
	}
	for _, k := range keys {
		k = strings.ToLower(k)
		if !known[k] {
			known[k] = true
			scope.OptionalKeys = append(scope.OptionalKeys, k)
		}
	}
	sort.Strings(scope.OptionalKeys)
}

func cloneScope(s *Scope) *Scope {
	out := *s
	out.RequiredKeys = append([]string(nil), s.RequiredKeys...)
	out.OptionalKeys = append([]string(nil), s.OptionalKeys...)
	return &out
}
