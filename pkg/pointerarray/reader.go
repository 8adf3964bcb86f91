package pointerarray

import (
	"fmt"
	"sort"

	"github.com/eunmann/bigarray/pkg/mmaparray"
)

// PointerArray is a read view over an indexed array file. The trailer is
// decoded once at open time; key lookups resolve to zero-copy row-range
// slices of the mapped data region. Plain row indexing falls through to
// the embedded array store.
type PointerArray struct {
	*mmaparray.Array
	indices map[string]Range
}

// Open maps the indexed array at path and decodes its trailer.
func Open(path string) (*PointerArray, error) {
	arr, err := mmaparray.Open(path)
	if err != nil {
		return nil, err
	}
	indices, err := readTrailer(arr.Path())
	if err != nil {
		arr.Close()
		return nil, err
	}
	return &PointerArray{Array: arr, indices: indices}, nil
}

// Get returns the rows recorded for key, without copying.
func (p *PointerArray) Get(key string) ([]byte, error) {
	r, ok := p.indices[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return p.Slice(r.Start, r.End)
}

// GetRange returns the row range recorded for key.
func (p *PointerArray) GetRange(key string) (Range, error) {
	r, ok := p.indices[key]
	if !ok {
		return Range{}, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return r, nil
}

// Indices returns a copy of the key-to-range mapping. The reader's own
// mapping cannot be mutated through the returned map.
func (p *PointerArray) Indices() map[string]Range {
	out := make(map[string]Range, len(p.indices))
	for k, v := range p.indices {
		out[k] = v
	}
	return out
}

// Keys returns the indexed keys in sorted order.
func (p *PointerArray) Keys() []string {
	keys := make([]string, 0, len(p.indices))
	for k := range p.indices {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of indexed keys.
func (p *PointerArray) Len() int { return len(p.indices) }
