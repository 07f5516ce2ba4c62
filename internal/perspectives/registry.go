package perspectives

import (
	"fmt"
	"sync"

	"github.com/steveyegge/resonator/internal/types"
)

// Registry holds the analyzers a run fans out to, in registration order.
// The set is fixed once an engine starts; registration order is the order of
// signals in every result.
type Registry struct {
	mu        sync.RWMutex
	analyzers []Analyzer
	index     map[types.Perspective]Analyzer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[types.Perspective]Analyzer),
	}
}

// Register adds an analyzer to the registry.
func (r *Registry) Register(a Analyzer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := a.Perspective()
	if !p.IsValid() {
		return fmt.Errorf("analyzer for unknown perspective %q", p)
	}
	if _, exists := r.index[p]; exists {
		return fmt.Errorf("perspective %q already registered", p)
	}

	r.analyzers = append(r.analyzers, a)
	r.index[p] = a
	return nil
}

// Get returns the analyzer registered for p.
func (r *Registry) Get(p types.Perspective) (Analyzer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.index[p]
	return a, ok
}

// All returns the registered analyzers in registration order.
func (r *Registry) All() []Analyzer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Analyzer(nil), r.analyzers...)
}

// Len returns the number of registered analyzers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.analyzers)
}

// Select returns a new registry holding only the named perspectives, kept in
// this registry's order. An empty list selects everything.
func (r *Registry) Select(names []string) (*Registry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[types.Perspective]bool, len(names))
	for _, name := range names {
		p := types.Perspective(name)
		if _, ok := r.index[p]; !ok {
			return nil, fmt.Errorf("perspective %q not registered", name)
		}
		wanted[p] = true
	}

	out := NewRegistry()
	for _, a := range r.analyzers {
		if len(wanted) > 0 && !wanted[a.Perspective()] {
			continue
		}
		if err := out.Register(a); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DefaultRegistry returns a registry with all six perspectives in canonical order.
func DefaultRegistry() (*Registry, error) {
	registry := NewRegistry()
	if err := RegisterAll(registry); err != nil {
		return nil, err
	}
	return registry, nil
}

// RegisterAll registers the built-in analyzers with registry.
func RegisterAll(registry *Registry) error {
	analyzers := []Analyzer{
		NewSyntaxAnalyzer(),
		NewSemanticAnalyzer(),
		NewSecurityAnalyzer(),
		NewPerformanceAnalyzer(),
		NewArchitectureAnalyzer(),
		NewEvolutionAnalyzer(),
	}
	for _, a := range analyzers {
		if err := registry.Register(a); err != nil {
			return fmt.Errorf("registering %s: %w", a.Perspective(), err)
		}
	}
	return nil
}
