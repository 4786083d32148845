// Package stdlib provides the Lox built-in native function registry.
package stdlib

import (
	"sort"

	"github.com/thomasrohde/lox/pkg/evaluator"
)

// Registry holds registered native functions.
type Registry struct {
	fns map[string]*evaluator.LoxNative
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]*evaluator.LoxNative),
	}
}

// Register adds a native function, replacing any with the same name.
func (r *Registry) Register(fn *evaluator.LoxNative) {
	r.fns[fn.Name] = fn
}

// Get retrieves a native function by name.
func (r *Registry) Get(name string) *evaluator.LoxNative {
	return r.fns[name]
}

// All returns all registered functions keyed by name.
func (r *Registry) All() map[string]*evaluator.LoxNative {
	return r.fns
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults returns a fresh map of the default built-ins, ready for
// evaluator.ExecOptions.Natives.
func Defaults() map[string]*evaluator.LoxNative {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.All()
}
