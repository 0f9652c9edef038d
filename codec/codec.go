// Package codec centralizes JSON encoding of mapping nodes, documents and
// model metadata.
//
// Persisted model blobs record the codec name, so switching the default codec
// never breaks reading older blobs.
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

// MustMarshal is a helper for tests.
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

// DecodeNode decodes a JSON object into a generic node. Numbers decode as
// float64.
func DecodeNode(c Codec, data []byte) (map[string]any, error) {
	if c == nil {
		c = Default
	}
	var node map[string]any
	if err := c.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("codec %s: decode node: %w", c.Name(), err)
	}
	if node == nil {
		return nil, fmt.Errorf("codec %s: decode node: not an object", c.Name())
	}
	return node, nil
}
