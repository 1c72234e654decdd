package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"github.com/egoavara/shellconf/internal/config"
	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/keypath"
)

var prettyOptions = &pretty.Options{Width: 80, Indent: "    "}

// Plugin is the scoped API handed to one plugin.
type Plugin struct {
	Config *Config
	I18n   *I18n

	name    string
	dir     string
	host    *Host
	logger  *zap.Logger
	dispose func()
}

// Name returns the plugin name without the .js suffix.
func (p *Plugin) Name() string {
	return p.name
}

// Dir returns the plugin's config directory.
func (p *Plugin) Dir() string {
	return p.dir
}

// SetOnMenu registers the hook that adds entries to this plugin's submenu.
func (p *Plugin) SetOnMenu(hook MenuHook) {
	p.host.hooks.Set(p.name, hook)
}

// Log writes a message tagged with the plugin name.
func (p *Plugin) Log(msg string, fields ...zap.Field) {
	p.logger.Info(msg, fields...)
}

// Close stops reload notifications for this plugin.
func (p *Plugin) Close() {
	if p.dispose != nil {
		p.dispose()
	}
}

func (p *Plugin) onChange(rel string, op fsnotify.Op) {
	p.logger.Debug("config file changed", zap.String("path", rel), zap.Stringer("op", op))
	if err := p.Config.Read(); err != nil {
		p.logger.Warn("failed to reload plugin config", zap.Error(err))
	}
	p.Config.notify()
}

// Config is a plugin's live configuration backed by <dir>/config.json.
type Config struct {
	mu       sync.RWMutex
	path     string
	live     map[string]any
	defaults map[string]any
	logger   *zap.Logger

	cbMu      sync.Mutex
	callbacks map[uint64]func(map[string]any)
	next      uint64
}

func newConfig(dir string, defaults map[string]any, logger *zap.Logger) *Config {
	defaults = keypath.CloneMap(defaults)
	if defaults == nil {
		defaults = make(map[string]any)
	}
	return &Config{
		path:      filepath.Join(dir, ConfigFile),
		live:      keypath.CloneMap(defaults),
		defaults:  defaults,
		logger:    logger,
		callbacks: make(map[uint64]func(map[string]any)),
	}
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.path
}

// Get returns the value at key from the live config, then from the
// defaults, and nil when neither has it.
func (c *Config) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := keypath.Get(c.live, key); ok {
		return keypath.Clone(v)
	}
	if v, ok := keypath.Get(c.defaults, key); ok {
		return keypath.Clone(v)
	}
	return nil
}

// Set writes value at key and persists the config. The in-memory value is
// kept even when persisting fails.
func (c *Config) Set(key string, value any) error {
	c.mu.Lock()
	live, err := keypath.SetE(c.live, key, keypath.Clone(value))
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	c.live = live
	data, err := c.encode()
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.write(data)
}

// All returns a copy of the live config.
func (c *Config) All() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return keypath.CloneMap(c.live)
}

// Read reloads the config file. A missing file keeps the current config;
// an unreadable or corrupt file is reported and the current config kept.
func (c *Config) Read() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", c.path, err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse %s: %w", c.path, err)
	}
	if parsed == nil {
		parsed = make(map[string]any)
	}

	c.mu.Lock()
	c.live = parsed
	c.mu.Unlock()
	return nil
}

// Write persists the live config.
func (c *Config) Write() error {
	c.mu.RLock()
	data, err := c.encode()
	c.mu.RUnlock()
	if err != nil {
		return err
	}
	return c.write(data)
}

func (c *Config) encode() ([]byte, error) {
	data, err := json.Marshal(c.live)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plugin config: %w", err)
	}
	return pretty.PrettyOptions(data, prettyOptions), nil
}

func (c *Config) write(data []byte) error {
	if err := config.WriteFileAtomic(c.path, data, 0644); err != nil {
		c.logger.Error("failed to save plugin config", zap.String("path", c.path), zap.Error(err))
		return fmt.Errorf("failed to save plugin config: %w", err)
	}
	return nil
}

// OnReload registers fn to run with the new config whenever this plugin's
// config file changes on disk.
func (c *Config) OnReload(fn func(map[string]any)) (dispose func()) {
	c.cbMu.Lock()
	c.next++
	id := c.next
	c.callbacks[id] = fn
	c.cbMu.Unlock()

	return func() {
		c.cbMu.Lock()
		defer c.cbMu.Unlock()
		delete(c.callbacks, id)
	}
}

func (c *Config) notify() {
	c.cbMu.Lock()
	ids := make([]uint64, 0, len(c.callbacks))
	for id := range c.callbacks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(map[string]any), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.callbacks[id])
	}
	c.cbMu.Unlock()

	for _, fn := range fns {
		c.callReload(fn)
	}
}

func (c *Config) callReload(fn func(map[string]any)) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("config reload callback failed", zap.Any("panic", r))
		}
	}()
	fn(c.All())
}

// I18n is a plugin's view of the translation catalog.
type I18n struct {
	catalog *i18n.Catalog
}

// Define registers translations for lang. Keys owned by the shell are
// ignored and returned.
func (t *I18n) Define(lang string, translations map[string]string) []string {
	return t.catalog.RegisterTranslations(lang, translations)
}

// T translates key in the current language.
func (t *I18n) T(key string, params map[string]any) string {
	return t.catalog.T(key, params)
}

// IsRTL reports whether the current language is right to left.
func (t *I18n) IsRTL() bool {
	return t.catalog.IsRTL()
}
