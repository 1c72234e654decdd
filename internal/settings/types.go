package settings

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Document represents the shell's config.json structure. Keys the tool does
// not know about are kept in Extra and written back untouched.
type Document struct {
	ContextMenu     *ContextMenu `json:"context_menu,omitempty"`
	DebugConsole    *bool        `json:"debug_console,omitempty"`
	PluginLoadOrder []string     `json:"plugin_load_order,omitempty"`
	Language        string       `json:"language,omitempty"`
	PluginSource    string       `json:"plugin_source,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// ContextMenu is the context_menu section. Theme holds the free-form theme
// subtree, including theme.animation.
type ContextMenu struct {
	Theme              map[string]any `json:"theme,omitempty"`
	VSync              *bool          `json:"vsync,omitempty"`
	Hotkeys            *bool          `json:"hotkeys,omitempty"`
	ShowSettingsButton *bool          `json:"show_settings_button,omitempty"`
	IgnoreOwnerDraw    *bool          `json:"ignore_owner_draw,omitempty"`
	ReverseIfOpenToUp  *bool          `json:"reverse_if_open_to_up,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var documentKeys = []string{"context_menu", "debug_console", "plugin_load_order", "language", "plugin_source"}

var contextMenuKeys = []string{"theme", "vsync", "hotkeys", "show_settings_button", "ignore_owner_draw", "reverse_if_open_to_up"}

// NewDocument creates an empty Document
func NewDocument() *Document {
	return &Document{}
}

// MarshalJSON writes the known fields followed by every Extra entry.
func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	data, err := json.Marshal(plain(d))
	if err != nil {
		return nil, err
	}
	return spliceExtra(data, d.Extra)
}

// UnmarshalJSON decodes the known fields and collects the rest into Extra.
// A known key whose value has the wrong type is kept in Extra as well.
func (d *Document) UnmarshalJSON(data []byte) error {
	var out Document
	extra, err := decodeFields(data, map[string]any{
		"context_menu":      &out.ContextMenu,
		"debug_console":     &out.DebugConsole,
		"plugin_load_order": &out.PluginLoadOrder,
		"language":          &out.Language,
		"plugin_source":     &out.PluginSource,
	})
	if err != nil {
		return err
	}
	out.Extra = extra
	*d = out
	return nil
}

// MarshalJSON writes the known fields followed by every Extra entry.
func (c ContextMenu) MarshalJSON() ([]byte, error) {
	type plain ContextMenu
	data, err := json.Marshal(plain(c))
	if err != nil {
		return nil, err
	}
	return spliceExtra(data, c.Extra)
}

// UnmarshalJSON decodes the known fields and collects the rest into Extra.
// A known key whose value has the wrong type is kept in Extra as well.
func (c *ContextMenu) UnmarshalJSON(data []byte) error {
	var out ContextMenu
	extra, err := decodeFields(data, map[string]any{
		"theme":                 &out.Theme,
		"vsync":                 &out.VSync,
		"hotkeys":               &out.Hotkeys,
		"show_settings_button":  &out.ShowSettingsButton,
		"ignore_owner_draw":     &out.IgnoreOwnerDraw,
		"reverse_if_open_to_up": &out.ReverseIfOpenToUp,
	})
	if err != nil {
		return err
	}
	out.Extra = extra
	*c = out
	return nil
}

// spliceExtra adds every Extra entry that data does not already hold. A
// known key only appears in Extra while its typed field is unset.
func spliceExtra(data []byte, extra map[string]json.RawMessage) ([]byte, error) {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var err error
	for _, k := range keys {
		if gjson.GetBytes(data, gjson.Escape(k)).Exists() {
			continue
		}
		data, err = sjson.SetRawBytes(data, gjson.Escape(k), extra[k])
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

// decodeFields decodes each key of the object in data that has a target.
// Keys without a target, and values that do not fit their target, are
// returned compacted.
func decodeFields(data []byte, targets map[string]any) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	extra := make(map[string]json.RawMessage)
	for k, raw := range all {
		if target, ok := targets[k]; ok {
			if err := json.Unmarshal(raw, target); err == nil {
				continue
			}
			reflect.ValueOf(target).Elem().SetZero()
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, err
		}
		extra[k] = buf.Bytes()
	}
	if len(extra) == 0 {
		return nil, nil
	}
	return extra, nil
}
