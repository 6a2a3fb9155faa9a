// Package action provides the executable behaviour behind catalog entries.
//
// Every entry in a chain is executed through an [Action]. Actions are
// registered by name on a [Registry]; a [Router] maps entry identifiers to
// action names. Entries without a registered action run the [Fallback]
// action so that unknown entry types never block a chain.
//
// Key types:
//   - [Action] - anything that can be invoked for an entry with an input
//   - [Func] - adapter for plain functions
//   - [Registry] - name-keyed actions plus fallback; implements chain.ActionProvider
//   - [Fallback] - simulated action whose output carries a "simulated" marker
//   - [Command] - runs an external process that speaks JSON lines
package action

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Action performs the work for one entry.
//
// Invoke receives the output of the previous step (nil for the first step or
// after a failure) and returns the value to hand to the next step.
type Action interface {
	Invoke(ctx context.Context, entryID string, input any) (any, error)
}

// Func adapts a function to [Action].
type Func func(ctx context.Context, entryID string, input any) (any, error)

// Invoke calls f.
func (f Func) Invoke(ctx context.Context, entryID string, input any) (any, error) {
	return f(ctx, entryID, input)
}

// Router maps an entry identifier to the name of the action that serves it.
//
// The router package provides the production implementation.
type Router interface {
	Route(entryID string) (string, error)
}

// Registry holds named actions and dispatches invocations to them.
//
// Without a router, the entry identifier is used as the action name. Action
// names are case-insensitive, matching the lowercased keys config loading
// produces. Entries that do not resolve to a registered action run the
// fallback.
type Registry struct {
	mu       sync.RWMutex
	actions  map[string]Action
	router   Router
	fallback Action
}

// NewRegistry creates an empty registry. A nil fallback selects
// [NewFallback] with [DefaultMinDelay] and [DefaultMaxDelay].
func NewRegistry(fallback Action) *Registry {
	if fallback == nil {
		fallback = NewFallback(DefaultMinDelay, DefaultMaxDelay)
	}
	return &Registry{
		actions:  make(map[string]Action),
		fallback: fallback,
	}
}

// Register adds or replaces the action with the given name.
func (r *Registry) Register(name string, a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[strings.ToLower(name)] = a
}

// SetRouter configures entry-to-action routing. Pass nil to route by entry id.
func (r *Registry) SetRouter(rt Router) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.router = rt
}

// Resolve returns the action serving entryID and its name. registered is
// false when the fallback was selected.
func (r *Registry) Resolve(entryID string) (a Action, name string, registered bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name = entryID
	if r.router != nil {
		routed, err := r.router.Route(entryID)
		if err != nil {
			return r.fallback, "", false
		}
		name = routed
	}
	name = strings.ToLower(name)

	if a, ok := r.actions[name]; ok {
		return a, name, true
	}
	return r.fallback, name, false
}

// Invoke runs the action serving entryID.
func (r *Registry) Invoke(ctx context.Context, entryID string, input any) (any, error) {
	a, _, _ := r.Resolve(entryID)
	return a.Invoke(ctx, entryID, input)
}

// Names returns the registered action names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
