// Package codec centralizes serialization of bigarray metadata blobs and
// name-index trailers.
//
// Codec selection is a format-compatibility boundary: the header metadata
// blob and the index trailer written by one codec must decode with the codec
// a reader uses, so all built-in codecs speak the same JSON wire form.
package codec

import "encoding/json"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Raw is a deferred-decode fragment, used when a blob holds heterogeneous
// elements (e.g. the [dtype, shape] metadata pair).
type Raw = json.RawMessage

// Default is the codec used for headers and trailers.
var Default Codec = GoJSON{}
