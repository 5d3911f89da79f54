package check

import (
	"sort"
	"sync"
)

// Resolver looks up check functions by exact, case-sensitive name.
type Resolver interface {
	Lookup(name string) (*Definition, bool)
}

// Registry stores check functions keyed by name.
// Registering a name that already exists replaces it.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry creates an empty registry. An empty registry populated by the
// caller is also how a per-call Namespace is built.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds def, overwriting any function with the same name.
func (r *Registry) Register(def *Definition) {
	if def == nil || def.Name == "" || def.Build == nil {
		panic("check: Register requires a named definition with a Build func")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// All returns every registered function sorted by name.
func (r *Registry) All() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// defaultRegistry is the process-wide registry, pre-populated with built-ins.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a function to the process-wide registry (last registration wins).
func Register(def *Definition) {
	defaultRegistry.Register(def)
}

// Lookup resolves a name against the process-wide registry.
func Lookup(name string) (*Definition, bool) {
	return defaultRegistry.Lookup(name)
}

// Namespace is a caller-supplied set of functions layered over a base
// resolver for a single call.
type Namespace = Registry

// layered consults each resolver in order; the first match wins.
type layered []Resolver

func (l layered) Lookup(name string) (*Definition, bool) {
	for _, r := range l {
		if def, ok := r.Lookup(name); ok {
			return def, true
		}
	}
	return nil, false
}

// WithNamespace returns a resolver that consults ns before base. Neither is
// modified. A nil ns returns base unchanged.
func WithNamespace(base Resolver, ns *Namespace) Resolver {
	if ns == nil {
		return base
	}
	if base == nil {
		return ns
	}
	return layered{ns, base}
}
