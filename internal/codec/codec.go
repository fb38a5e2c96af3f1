// Package codec provides the marshalers used to embed arbitrary values in a
// dump as opaque blobs.
package codec

// Codec encodes and decodes values as self-contained blobs.
type Codec interface {
	// Marshal serializes v into bytes.
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes data into v (must be a pointer). data is not
	// retained.
	Unmarshal(data []byte, v any) error
	// Name returns the codec identifier used in error messages.
	Name() string
}
