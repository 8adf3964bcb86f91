package mmaparray

import "sync"

// MaxOpenWriters is the per-registry ceiling on concurrently open writers.
const MaxOpenWriters = 120

// Registry tracks the live writer for each absolute path, so that opening a
// path twice in one process returns the existing handle instead of creating
// a second conflicting mapping. Tests should use NewRegistry rather than
// sharing DefaultRegistry across cases.
type Registry struct {
	mu      sync.Mutex
	writers map[string]*Writer
	limit   int
}

// DefaultRegistry is the process-wide registry used when Options.Registry
// is nil.
var DefaultRegistry = NewRegistry(MaxOpenWriters)

// NewRegistry creates a registry that admits at most limit open writers.
func NewRegistry(limit int) *Registry {
	return &Registry{
		writers: make(map[string]*Writer),
		limit:   limit,
	}
}

// OpenCount returns the number of live writers in the registry.
func (r *Registry) OpenCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writers)
}

// Lookup returns the live writer for the absolute path, if there is one.
// Layers stacked on top of the store use this to tell whether an open of
// theirs created the underlying writer or joined an existing one.
func (r *Registry) Lookup(path string) (*Writer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.writers[path]
	if !ok || w.closed {
		return nil, false
	}
	return w, true
}

// open returns the live writer for path, or admits a new one built by create.
// The lock is held across create so two goroutines cannot race a second
// mapping into existence for the same path.
func (r *Registry) open(path string, create func() (*Writer, error)) (*Writer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.writers[path]; ok && !w.closed {
		return w, nil
	}
	if len(r.writers) >= r.limit {
		return nil, ErrTooManyWriters
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
