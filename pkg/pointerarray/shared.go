package pointerarray

import "sync"

// SharedIndex is the mutable key-to-range mapping shared by every writer
// handle that was constructed from the same WriterState. All mutations and
// snapshots are taken under one lock, so a flush always serializes a
// consistent view. Entries are added or overwritten, never removed.
type SharedIndex struct {
	mu       sync.Mutex
	m        map[string]Range
	disposed bool
}

// NewSharedIndex creates an index seeded with a copy of seed (may be nil).
func NewSharedIndex(seed map[string]Range) *SharedIndex {
	m := make(map[string]Range, len(seed))
	for k, v := range seed {
		m[k] = v
	}
	return &SharedIndex{m: m}
}

// Update merges ranges into the index, overwriting existing keys.
func (s *SharedIndex) Update(ranges map[string]Range) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	for k, v := range ranges {
		s.m[k] = v
	}
}

// Snapshot returns a consistent copy of the mapping.
func (s *SharedIndex) Snapshot() map[string]Range {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Range, len(s.m))
	for k, v := range s.m {
		out[k] = v
	}
	return out
}

// Len returns the number of keys in the index.
func (s *SharedIndex) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// Dispose releases the index. Disposing twice is a no-op.
func (s *SharedIndex) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	s.m = nil
}
