// Package keypath reads and writes values in nested JSON-shaped maps
// addressed by dot-separated paths such as "theme.animation.item".
package keypath

import (
	"errors"
	"strings"
)

// ErrNotMapping is returned by SetE when an intermediate node exists but is
// not a map.
var ErrNotMapping = errors.New("intermediate node is not a mapping")

// Get returns the value stored at path. Missing segments and non-mapping
// intermediates report false instead of failing.
func Get(obj map[string]any, path string) (any, bool) {
	if obj == nil {
		return nil, false
	}

	keys := strings.Split(path, ".")
	var cur any = obj
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set assigns value at path, creating intermediate maps as needed. obj is
// mutated in place and returned. If an intermediate node is not a map the
// call is a no-op; use SetE to observe that case.
func Set(obj map[string]any, path string, value any) map[string]any {
	obj, _ = SetE(obj, path, value)
	return obj
}

// SetE is Set with the non-mapping intermediate case reported as an error.
// A nil obj is replaced by a fresh map.
func SetE(obj map[string]any, path string, value any) (map[string]any, error) {
	if obj == nil {
		obj = make(map[string]any)
	}

	keys := strings.Split(path, ".")
	last := keys[len(keys)-1]

	target := obj
	for _, k := range keys[:len(keys)-1] {
		next, ok := target[k]
		if !ok || next == nil {
			child := make(map[string]any)
			target[k] = child
			target = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return obj, ErrNotMapping
		}
		target = child
	}

	target[last] = value
	return obj, nil
}

// Delete removes the leaf at path. It reports whether anything was removed.
func Delete(obj map[string]any, path string) bool {
	keys := strings.Split(path, ".")
	parentPath := strings.Join(keys[:len(keys)-1], ".")

	parent := obj
	if parentPath != "" {
		v, ok := Get(obj, parentPath)
		if !ok {
			return false
		}
		parent, ok = v.(map[string]any)
		if !ok {
			return false
		}
	}
	if parent == nil {
		return false
	}

	last := keys[len(keys)-1]
	if _, ok := parent[last]; !ok {
		return false
	}
	delete(parent, last)
	return true
}

// Clone deep-copies a JSON-shaped value. Maps and slices are copied; every
// other value is returned as is.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}

// CloneMap deep-copies a map. A nil map stays nil.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}
