// Package router maps catalog entries to the actions that execute them.
//
// By default an entry is served by the action registered under its own
// identifier. A chain manifest can bind entries to differently named actions,
// so several entries can share one action ([NewRouterFromManifest]).
package router

import (
	"errors"

	"mcpchain/internal/manifest"
)

// ErrUnroutable indicates an entry identifier that cannot be routed at all.
// The action registry answers it with the fallback action.
var ErrUnroutable = errors.New("entry cannot be routed")

// Router routes entry identifiers to action names.
//
// Create with [NewRouter] for identity routing or [NewRouterFromManifest] for
// manifest bindings. Entries without a binding keep identity routing.
type Router struct {
	// bindings maps entry id → action name.
	bindings map[string]string
}

// NewRouter creates a [Router] without bindings.
func NewRouter() *Router {
	return &Router{bindings: make(map[string]string)}
}

// NewRouterFromManifest creates a [Router] from the action column of a chain manifest.
func NewRouterFromManifest(m *manifest.Manifest) *Router {
	r := NewRouter()
	for entryID, action := range m.Bindings() {
		r.Bind(entryID, action)
	}
	return r
}

// Bind routes entryID to the named action, replacing any earlier binding.
func (r *Router) Bind(entryID, action string) {
	r.bindings[entryID] = action
}

// Route returns the action name for entryID.
//
// Returns [ErrUnroutable] for an empty identifier.
func (r *Router) Route(entryID string) (string, error) {
	if entryID == "" {
		return "", ErrUnroutable
	}
	if action, ok := r.bindings[entryID]; ok {
		return action, nil
	}
	return entryID, nil
}

// Bindings returns a copy of the explicit bindings.
func (r *Router) Bindings() map[string]string {
	out := make(map[string]string, len(r.bindings))
	for k, v := range r.bindings {
		out[k] = v
	}
	return out
}
