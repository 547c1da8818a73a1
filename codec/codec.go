// Package codec centralizes the persistence encodings used for derived fields.
//
// It has three layers:
//   - Codec: document encoding for serializable templates (JSON, go-json)
//   - RLE: run-length encoding of integer category code buffers
//   - Block compression: optional zstd/lz4 framing of encoded run blocks
//
// Codec selection is a breaking-change boundary: persisted templates record the
// codec name so they can be decoded with the codec that produced them.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
