// Package codec centralizes sidecar and metadata encoding.
//
// Codec selection is a compatibility boundary: bytes written by one codec
// are only guaranteed to decode with a codec of the same wire format. Both
// built-in codecs emit standard JSON and are interchangeable.
package codec

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
