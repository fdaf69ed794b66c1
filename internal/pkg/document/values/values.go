// Package values provides helpers for untyped JSON-shaped document values.
package values

import (
	"github.com/google/go-cmp/cmp"

	"github.com/docwire/docwire/internal/pkg/encoding/json"
)

// Normalize round-trips the value through JSON, so content supplied as typed
// Go structures takes the same shape as content loaded from a backing store:
// records become map[string]any, sequences []any, numbers float64.
func Normalize(v any) (any, error) {
	data, err := json.Encode(v, false)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Decode(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Clone deep-copies a JSON-shaped value.
func Clone(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, item := range typed {
			out[k] = Clone(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// Equal compares two JSON-shaped values deeply.
func Equal(a, b any) bool {
	return cmp.Equal(a, b)
}

// Record coerces the value to a non-array record.
func Record(v any) (map[string]any, bool) {
	typed, ok := v.(map[string]any)
	return typed, ok
}

// Sequence coerces the value to an ordered sequence.
func Sequence(v any) ([]any, bool) {
	typed, ok := v.([]any)
	return typed, ok
}
