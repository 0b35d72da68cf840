package macro

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// Registry collects loaded modules by namespace.
type Registry struct {
	reserved map[string]bool
	modules  map[string]*LoadedModule
}

// NewRegistry creates a registry that refuses the reserved names, usually
// the engine builtins, as namespaces.
func NewRegistry(reserved ...string) *Registry {
	r := &Registry{
		reserved: make(map[string]bool, len(reserved)),
		modules:  make(map[string]*LoadedModule),
	}
	for _, name := range reserved {
		r.reserved[name] = true
	}
	return r
}

// Register adds a module. Reserved and duplicate namespaces are rejected.
func (r *Registry) Register(m *LoadedModule) error {
	if r.reserved[m.Namespace] {
		return &RegistryError{
			Namespace: m.Namespace,
			Path:      m.Path,
			Message:   "namespace conflicts with a builtin",
		}
	}
	if prev, ok := r.modules[m.Namespace]; ok {
		return &RegistryError{
			Namespace: m.Namespace,
			Path:      m.Path,
			Message:   fmt.Sprintf("namespace already defined by %s", prev.Path),
		}
	}
	r.modules[m.Namespace] = m
	return nil
}

// RegisterAll registers modules in order and stops at the first error.
func (r *Registry) RegisterAll(modules []*LoadedModule) error {
	for _, m := range modules {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether namespace is registered.
func (r *Registry) Has(namespace string) bool {
	_, ok := r.modules[namespace]
	return ok
}

// Get returns the module registered as namespace.
func (r *Registry) Get(namespace string) (*LoadedModule, bool) {
	m, ok := r.modules[namespace]
	return m, ok
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.modules)
}

// Namespaces returns the registered namespaces in sorted order.
func (r *Registry) Namespaces() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToStarlarkDict returns one struct per namespace, keyed by namespace.
func (r *Registry) ToStarlarkDict() starlark.StringDict {
	dict := make(starlark.StringDict, len(r.modules))
	for name, m := range r.modules {
		dict[name] = starlarkstruct.FromStringDict(starlark.String(name), m.Exports)
	}
	return dict
}

// RegistryError reports a namespace that could not be registered.
type RegistryError struct {
	Namespace string
	Path      string
	Message   string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("script namespace %q (%s): %s", e.Namespace, e.Path, e.Message)
}
