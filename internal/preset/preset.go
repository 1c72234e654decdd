// Package preset matches and applies named style presets onto partially
// customized settings subtrees.
//
// A Family is an ordered list of presets. The union of the keys set by its
// non-default presets are the family's managed keys; every other key of a
// settings subtree belongs to the user and survives preset switches.
package preset

import (
	"errors"
	"sort"

	"github.com/egoavara/shellconf/internal/keypath"
)

const (
	// Default names the preset that clears every managed key.
	Default = "default"
	// Custom is reported when managed keys are set but match no preset.
	// It is a classification only and can never be applied.
	Custom = "custom"
)

// ErrUnknownPreset is returned when a preset name is not part of a family.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is one named entry of a family. Nil Values marks the default preset.
type Preset struct {
	Name   string
	Values map[string]any
}

// Family is an ordered list of presets. Order is significant: CurrentName
// reports the first matching preset in declaration order.
type Family []Preset

// Names returns the preset names in declaration order.
func (f Family) Names() []string {
	names := make([]string, len(f))
	for i, p := range f {
		names[i] = p.Name
	}
	return names
}

// Lookup finds a preset by name.
func (f Family) Lookup(name string) (Preset, bool) {
	for _, p := range f {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Managed returns the managed key set of the family.
func (f Family) Managed() map[string]struct{} {
	keys := make(map[string]struct{})
	for _, p := range f {
		for k := range p.Values {
			keys[k] = struct{}{}
		}
	}
	return keys
}

// ManagedKeys returns the sorted union of top-level keys across every
// non-default preset of f.
func ManagedKeys(f Family) []string {
	set := f.Managed()
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply returns a new subtree with values applied over current.
//
// With nil values the result is current minus every managed key. Otherwise
// the result is a copy of values plus every unmanaged key of current.
// Neither input is mutated and the result shares no maps with them.
func Apply(values, current map[string]any, f Family) map[string]any {
	managed := f.Managed()

	out := keypath.CloneMap(values)
	if out == nil {
		out = make(map[string]any, len(current))
	}
	for k, v := range current {
		if _, ok := managed[k]; ok {
			continue
		}
		out[k] = keypath.Clone(v)
	}
	return out
}

// ApplyNamed applies the preset called name.
func ApplyNamed(name string, current map[string]any, f Family) (map[string]any, error) {
	p, ok := f.Lookup(name)
	if !ok {
		return nil, ErrUnknownPreset
	}
	return Apply(p.Values, current, f), nil
}

// Match reports whether every non-ignored key of values deep-equals the same
// key in current. A nil preset never matches.
func Match(current, values map[string]any, ignore []string) bool {
	if values == nil {
		return false
	}
	for k, want := range values {
		if contains(ignore, k) {
			continue
		}
		if !Equal(current[k], want) {
			return false
		}
	}
	return true
}

// CurrentName classifies current against f: Default when nothing
// preset-relevant is set, the first matching preset otherwise, else Custom.
func CurrentName(current map[string]any, f Family, ignore ...string) string {
	if len(current) == 0 {
		return Default
	}

	managed := f.Managed()
	relevant := false
	for k, v := range current {
		if v == nil || contains(ignore, k) {
			continue
		}
		if _, ok := managed[k]; ok {
			relevant = true
			break
		}
	}
	if !relevant {
		return Default
	}

	for _, p := range f {
		if p.Values != nil && Match(current, p.Values, ignore) {
			return p.Name
		}
	}
	return Custom
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
