// Package selector resolves a path expression into a nested location
// inside a JSON-shaped value.
//
// A selector is an ordered list of string segments. Segments address records
// (map[string]any) by key and sequences ([]any) by decimal index. An empty
// selector addresses the root.
package selector

import (
	"strconv"
	"strings"
)

type Selector []string

// Parse splits a dot-delimited path, an empty string addresses the root.
func Parse(path string) Selector {
	if path == "" {
		return nil
	}
	return Selector(strings.Split(path, "."))
}

func (s Selector) String() string {
	return strings.Join(s, ".")
}

func (s Selector) IsRoot() bool {
	return len(s) == 0
}

// Resolve walks the value along the selector.
// It returns false if any segment is missing or shaped wrong.
func Resolve(root any, sel Selector) (any, bool) {
	current := root
	for _, segment := range sel {
		switch typed := current.(type) {
		case map[string]any:
			value, found := typed[segment]
			if !found {
				return nil, false
			}
			current = value
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(typed) {
				return nil, false
			}
			current = typed[index]
		default:
			return nil, false
		}
	}
	return current, true
}

// Put writes the value at the selector and returns the new root.
// Writes through records and sequences are in place, only a root-level
// replacement produces a different root. The second return value reports
// whether the location was reachable.
func Put(root any, sel Selector, value any) (any, bool) {
	if len(sel) == 0 {
		return value, true
	}

	parent, found := Resolve(root, sel[:len(sel)-1])
	if !found {
		return root, false
	}

	last := sel[len(sel)-1]
	switch typed := parent.(type) {
	case map[string]any:
		typed[last] = value
		return root, true
	case []any:
		index, err := strconv.Atoi(last)
		if err != nil || index < 0 || index >= len(typed) {
			return root, false
		}
		typed[index] = value
		return root, true
	default:
		return root, false
	}
}
