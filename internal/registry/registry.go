// Package registry holds the fixed, ordered set of heuristics a checker runs.
package registry

import (
	"fmt"
	"sync"

	"github.com/ppiankov/rootcheck/internal/heuristics"
	"github.com/ppiankov/rootcheck/internal/model"
)

// ConfigurationError reports a registry set up incorrectly. It is fatal to
// initialization and must be surfaced to the integrator.
type ConfigurationError struct {
	Heuristic string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.Heuristic == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: heuristic %q: %s", e.Heuristic, e.Reason)
}

// Registry is an ordered set of heuristics with unique identifiers.
// Registration is closed once Freeze is called (the checker does so on its first run).
type Registry struct {
	mu         sync.RWMutex
	heuristics []heuristics.Heuristic
	ids        map[string]bool
	frozen     bool
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		ids: make(map[string]bool),
	}
}

// NewWith creates a registry holding hs in order
func NewWith(hs ...heuristics.Heuristic) (*Registry, error) {
	r := New()
	for _, h := range hs {
		if err := r.Register(h); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a heuristic. Duplicate identifiers, empty identifiers,
// unknown categories or confidence levels, nil heuristics and registration
// after Freeze fail with a ConfigurationError.
func (r *Registry) Register(h heuristics.Heuristic) error {
	if h == nil {
		return &ConfigurationError{Reason: "nil heuristic"}
	}

	id := h.ID()
	if id == "" {
		return &ConfigurationError{Reason: "empty heuristic identifier"}
	}
	if _, err := model.ParseCategory(string(h.Category())); err != nil {
		return &ConfigurationError{Heuristic: id, Reason: fmt.Sprintf("invalid category %q", h.Category())}
	}
	if level := h.Confidence(); !level.Valid() {
		return &ConfigurationError{Heuristic: id, Reason: fmt.Sprintf("invalid confidence %d", int(level))}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return &ConfigurationError{Heuristic: id, Reason: "registry is frozen after the first run"}
	}
	if r.ids[id] {
		return &ConfigurationError{Heuristic: id, Reason: "already registered"}
	}

	r.ids[id] = true
	r.heuristics = append(r.heuristics, h)
	return nil
}

// All returns the heuristics in registration order. The returned slice is a
// copy; callers may iterate it repeatedly.
func (r *Registry) All() []heuristics.Heuristic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]heuristics.Heuristic, len(r.heuristics))
	copy(out, r.heuristics)
	return out
}

// IDs returns the registered identifiers in registration order
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.heuristics))
	for i, h := range r.heuristics {
		ids[i] = h.ID()
	}
	return ids
}

// Len returns the number of registered heuristics
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.heuristics)
}

// Freeze closes registration
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether registration is closed
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}
