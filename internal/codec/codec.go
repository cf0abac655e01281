// Package codec selects the JSON implementation used for snapshot payloads.
//
// Snapshots record the codec by name; both built-in codecs produce standard
// JSON, so either can read what the other wrote.
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

// Default is the codec used for new snapshots.
var Default Codec = GoJSON{}
