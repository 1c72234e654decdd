package settings

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/egoavara/shellconf/internal/keypath"
	"github.com/egoavara/shellconf/internal/logging"
	"github.com/egoavara/shellconf/internal/preset"
)

// DefaultPluginSource is used when the document names no plugin source.
const DefaultPluginSource = "Enlysure"

// Toggle describes one boolean switch of the settings surfaces.
type Toggle struct {
	Path    string // dot path from the document root
	Label   string // i18n key
	Default bool   // value assumed when the key is absent
}

// Toggles lists the boolean switches in display order.
var Toggles = []Toggle{
	{Path: "debug_console", Label: "settings.debug_console", Default: false},
	{Path: "context_menu.vsync", Label: "settings.vsync", Default: true},
	{Path: "context_menu.ignore_owner_draw", Label: "settings.ignore_owner_draw", Default: true},
	{Path: "context_menu.reverse_if_open_to_up", Label: "settings.reverse_if_open_to_up", Default: true},
	{Path: "context_menu.theme.use_dwm_if_available", Label: "settings.use_dwm_round_corners", Default: true},
	{Path: "context_menu.theme.acrylic", Label: "settings.acrylic_background", Default: true},
	{Path: "context_menu.hotkeys", Label: "settings.keyboard_hotkeys", Default: true},
	{Path: "context_menu.show_settings_button", Label: "settings.show_settings_button", Default: true},
}

// LookupToggle finds a toggle by path.
func LookupToggle(path string) (Toggle, bool) {
	for _, t := range Toggles {
		if t.Path == path {
			return t, true
		}
	}
	return Toggle{}, false
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	data, err := json.Marshal(d)
	if err != nil {
		return NewDocument()
	}
	var out Document
	if err := json.Unmarshal(data, &out); err != nil {
		return NewDocument()
	}
	return &out
}

// ToMap returns the document as a generic JSON tree.
func (d *Document) ToMap() (map[string]any, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// FromMap replaces d with the contents of a generic JSON tree.
func (d *Document) FromMap(m map[string]any) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	var out Document
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*d = out
	return nil
}

// Get returns the value at a dot path.
func (d *Document) Get(path string) (any, bool) {
	m, err := d.ToMap()
	if err != nil {
		return nil, false
	}
	return keypath.Get(m, path)
}

// Set assigns value at a dot path. Unknown keys anywhere in the document
// survive the edit.
func (d *Document) Set(path string, value any) error {
	m, err := d.ToMap()
	if err != nil {
		return err
	}
	if m, err = keypath.SetE(m, path, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return d.FromMap(m)
}

// Bool returns the boolean at path, or def when absent or not a boolean.
func (d *Document) Bool(path string, def bool) bool {
	v, ok := d.Get(path)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// ToggleBool flips the boolean at path and returns the new value.
func (d *Document) ToggleBool(path string, def bool) (bool, error) {
	next := !d.Bool(path, def)
	if err := d.Set(path, next); err != nil {
		return d.Bool(path, def), err
	}
	return next, nil
}

func (d *Document) contextMenu() *ContextMenu {
	if d.ContextMenu == nil {
		d.ContextMenu = &ContextMenu{}
	}
	return d.ContextMenu
}

// Theme returns the context_menu.theme subtree, or nil.
func (d *Document) Theme() map[string]any {
	if d.ContextMenu == nil {
		return nil
	}
	return d.ContextMenu.Theme
}

// SetTheme replaces the theme subtree. An empty subtree removes the key.
func (d *Document) SetTheme(theme map[string]any) {
	if len(theme) == 0 {
		if d.ContextMenu != nil {
			d.ContextMenu.Theme = nil
		}
		return
	}
	d.contextMenu().Theme = theme
}

// Animation returns the context_menu.theme.animation subtree, or nil.
func (d *Document) Animation() map[string]any {
	anim, _ := d.Theme()["animation"].(map[string]any)
	return anim
}

// SetAnimation replaces the animation subtree, keeping the rest of the theme.
// An empty subtree removes the key.
func (d *Document) SetAnimation(anim map[string]any) {
	theme := keypath.CloneMap(d.Theme())
	if len(anim) == 0 {
		delete(theme, "animation")
	} else {
		if theme == nil {
			theme = make(map[string]any)
		}
		theme["animation"] = anim
	}
	d.SetTheme(theme)
}

// ThemePreset classifies the theme subtree against preset.ThemePresets.
func (d *Document) ThemePreset() string {
	return preset.CurrentName(d.Theme(), preset.ThemePresets)
}

// AnimationPreset classifies the animation subtree against
// preset.AnimationPresets.
func (d *Document) AnimationPreset() string {
	return preset.CurrentName(d.Animation(), preset.AnimationPresets)
}

// ApplyThemePreset applies a theme preset, keeping custom theme keys.
func (d *Document) ApplyThemePreset(name string) error {
	theme, err := preset.ApplyNamed(name, d.Theme(), preset.ThemePresets)
	if err != nil {
		return fmt.Errorf("theme preset %q: %w", name, err)
	}
	d.SetTheme(theme)
	return nil
}

// ApplyAnimationPreset applies an animation preset, keeping custom
// animation keys.
func (d *Document) ApplyAnimationPreset(name string) error {
	anim, err := preset.ApplyNamed(name, d.Animation(), preset.AnimationPresets)
	if err != nil {
		return fmt.Errorf("animation preset %q: %w", name, err)
	}
	d.SetAnimation(anim)
	return nil
}

// IsPrioritized reports whether name is in the priority load list.
func (d *Document) IsPrioritized(name string) bool {
	return slices.Contains(d.PluginLoadOrder, name)
}

// TogglePriority removes name from the priority load list, or inserts it at
// the front. It returns whether name is prioritized afterwards.
func (d *Document) TogglePriority(name string) bool {
	if d.IsPrioritized(name) {
		d.PluginLoadOrder = slices.DeleteFunc(d.PluginLoadOrder, func(s string) bool { return s == name })
		return false
	}
	d.PluginLoadOrder = append([]string{name}, d.PluginLoadOrder...)
	return true
}

// EffectiveSource returns the selected plugin source name.
func (d *Document) EffectiveSource() string {
	if d.PluginSource == "" {
		return DefaultPluginSource
	}
	return d.PluginSource
}

// Session owns the in-memory settings document for one settings surface.
// Mutations go through Update; the in-memory document stays authoritative
// when a save fails.
type Session struct {
	mu     sync.Mutex
	store  *Store
	doc    *Document
	logger *zap.Logger
}

// NewSession loads the document from store.
func NewSession(store *Store, logger *zap.Logger) *Session {
	return &Session{
		store:  store,
		doc:    store.Load(),
		logger: logging.OrNop(logger),
	}
}

// Document returns a copy of the current document.
func (s *Session) Document() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Update applies fn to the in-memory document and saves it. If fn fails
// nothing changes. If the save fails the change is kept in memory and the
// *SaveError is returned for the caller to report.
func (s *Session) Update(fn func(*Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	if err := fn(next); err != nil {
		return err
	}
	s.doc = next

	if err := s.store.Save(next); err != nil {
		s.logger.Warn("settings kept in memory after failed save", zap.Error(err))
		return err
	}
	return nil
}

// Reload replaces the in-memory document with the one on disk.
func (s *Session) Reload() {
	doc := s.store.Load()

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
}
