package pointerarray

import "sync"

// Registry tracks the live indexed writer for each absolute path, mirroring
// the array-store registry one layer down: opening a path twice returns the
// existing handle. The open-writer ceiling is enforced by the underlying
// array registry, not here. Tests should use NewRegistry rather than sharing
// DefaultRegistry across cases.
type Registry struct {
	mu      sync.Mutex
	writers map[string]*Writer
}

// DefaultRegistry is the process-wide registry used when Options.Registry
// is nil.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty writer registry.
func NewRegistry() *Registry {
	return &Registry{writers: make(map[string]*Writer)}
}

// OpenCount returns the number of live writers in the registry.
func (r *Registry) OpenCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writers)
}

// open returns the live writer for path, or admits a new one built by create.
// The lock is held across create so two goroutines cannot race a second
// writer into existence for the same path.
func (r *Registry) open(path string, create func() (*Writer, error)) (*Writer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.writers[path]; ok && !w.closed {
		return w, nil
	}
	w, err := create()
	if err != nil {
		return nil, err
	}
	r.writers[path] = w
	return w, nil
}

func (r *Registry) remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.writers, path)
}
