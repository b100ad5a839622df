package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/routerkit/routerkit-go/pkg/openrouter"
)

// Registry keeps the mapping between tool names and their canonical
// definitions. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register inserts a definition when its name is not in use.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return fmt.Errorf("tool definition is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.name]; exists {
		return fmt.Errorf("tool %s already registered", def.name)
	}
	r.defs[def.name] = def
	return nil
}

// Get fetches a definition by name.
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Len reports how many tools are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// List produces a name-sorted snapshot of all definitions so request
// payloads stay deterministic.
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].name < defs[j].name })
	return defs
}

// Params renders the wire advertisement for every registered tool.
func (r *Registry) Params() []openrouter.ToolParam {
	defs := r.List()
	if len(defs) == 0 {
		return nil
	}
	params := make([]openrouter.ToolParam, 0, len(defs))
	for _, def := range defs {
		params = append(params, def.Param())
	}
	return params
}
