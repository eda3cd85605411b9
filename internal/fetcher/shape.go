package fetcher

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Shape is the layout a JSON playlist was recognized as.
type Shape int

const (
	ShapeUnknown    Shape = iota
	ShapeArray            // top-level array of entries
	ShapeNamedArray       // object holding the entries under a known key
	ShapeKeyed            // object mapping opaque keys to entries
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeNamedArray:
		return "named-array"
	case ShapeKeyed:
		return "keyed"
	default:
		return "unknown"
	}
}

// arrayKeys are checked in priority order for a named entry array.
var arrayKeys = []string{"channels", "items", "playlist"}

// DetectShape decodes a JSON playlist and returns its entries in display order.
// Keyed mappings are ordered with CompareChannelKeys. Every element counts as
// an entry; one that is not a JSON object becomes an empty RawEntry, which the
// normalizer drops. Returns ErrShape for undecodable or scalar payloads and
// ErrEmpty when the detected sequence has no elements.
func DetectShape(data []byte) ([]RawEntry, Shape, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, ShapeUnknown, fmt.Errorf("%w: %v", ErrShape, err)
	}

	var (
		items []any
		shape Shape
	)
	switch v := payload.(type) {
	case []any:
		items, shape = v, ShapeArray
	case map[string]any:
		for _, k := range arrayKeys {
			if arr, ok := v[k].([]any); ok {
				items, shape = arr, ShapeNamedArray
				break
			}
		}
		if shape == ShapeUnknown && len(v) > 0 {
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			SortChannelKeys(keys)
			items = make([]any, 0, len(keys))
			for _, k := range keys {
				items = append(items, v[k])
			}
			shape = ShapeKeyed
		}
		if shape == ShapeUnknown {
			return nil, ShapeUnknown, ErrEmpty
		}
	default:
		return nil, ShapeUnknown, fmt.Errorf("%w: top-level %T", ErrShape, payload)
	}

	if len(items) == 0 {
		return nil, shape, ErrEmpty
	}
	entries := make([]RawEntry, 0, len(items))
	for _, it := range items {
		obj, _ := it.(map[string]any)
		entries = append(entries, RawEntry(obj))
	}
	return entries, shape, nil
}
