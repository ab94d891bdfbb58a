package filters

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Registry stores filter descriptors by name
type Registry struct {
	filters map[string]*Descriptor
	mu      sync.RWMutex
}

// globalRegistry is the global filter catalogue
var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		filters: make(map[string]*Descriptor),
	}
}

// GlobalRegistry returns the global filter catalogue
func GlobalRegistry() *Registry {
	return globalRegistry
}

// Register registers a descriptor globally
func Register(d *Descriptor) {
	globalRegistry.Register(d)
}

// Get retrieves a descriptor by name
func Get(name string) (*Descriptor, error) {
	return globalRegistry.Get(name)
}

// List returns all registered descriptors sorted by name
func List() []*Descriptor {
	return globalRegistry.List()
}

// ListByCategory returns descriptors in a specific category
func ListByCategory(category Category) []*Descriptor {
	return globalRegistry.ListByCategory(category)
}

// Register registers a descriptor in this registry
func (r *Registry) Register(d *Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Later entries replace earlier ones, so catalogue files can override builtins
	r.filters[d.Name] = d
}

// Load reads a catalogue file and registers every entry
func (r *Registry) Load(rd io.Reader) (int, error) {
	descs, err := LoadCatalogue(rd)
	if err != nil {
		return 0, err
	}
	for _, d := range descs {
		r.Register(d)
	}
	return len(descs), nil
}

// Reset clears all registered descriptors (for testing)
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = make(map[string]*Descriptor)
}

// Get retrieves a descriptor by name
func (r *Registry) Get(name string) (*Descriptor, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("filter '%s' not found", name)
	}
	return d, nil
}

// Lookup retrieves a descriptor by name, reporting whether it exists
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.filters[name]
	return d, ok
}

// Len returns the number of registered descriptors
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filters)
}

// List returns all registered descriptors sorted by name
func (r *Registry) List() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := maps.Keys(r.filters)
	slices.Sort(names)

	result := make([]*Descriptor, 0, len(names))
	for _, name := range names {
		result = append(result, r.filters[name])
	}
	return result
}

// ListByCategory returns descriptors in a specific category
func (r *Registry) ListByCategory(category Category) []*Descriptor {
	result := []*Descriptor{}
	for _, d := range r.List() {
		if d.Category == category {
			result = append(result, d)
		}
	}
	return result
}
