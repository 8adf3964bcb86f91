// Package pointerarray layers a persistent name index over pkg/mmaparray:
// many named sub-arrays are packed into one file and retrieved by string
// key. The index maps each key to a half-open row range and is appended as
// a trailer after the row data on flush; the last 8 bytes of a finalized
// file always hold the big-endian byte length of the index blob that
// precedes them.
package pointerarray

import (
	"encoding/json"
	"fmt"

	"github.com/eunmann/bigarray/pkg/mmaparray"
)

// Range is a half-open [Start, End) row interval in the underlying array.
type Range struct {
	Start int64
	End   int64
}

// Rows returns the number of rows the range spans.
func (r Range) Rows() int64 { return r.End - r.Start }

// MarshalJSON persists the range as a compact [start, end] pair.
func (r Range) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("[%d,%d]", r.Start, r.End)), nil
}

// UnmarshalJSON decodes a [start, end] pair.
func (r *Range) UnmarshalJSON(data []byte) error {
	var v [2]int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.Start, r.End = v[0], v[1]
	return nil
}

// Entry names one block in a batch write. Entries are a slice rather than a
// map so that range assignment within a batch follows a deterministic order.
type Entry struct {
	Name  string
	Block mmaparray.Block
}
