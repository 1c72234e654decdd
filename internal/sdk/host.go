package sdk

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/egoavara/shellconf/internal/config"
	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/logging"
	"github.com/egoavara/shellconf/internal/menu"
)

// ConfigFile is the name of a plugin's config file inside its directory.
const ConfigFile = "config.json"

// MenuHook contributes entries to a plugin's submenu.
type MenuHook func() []*menu.Item

// MenuHooks maps plugin names to their menu hooks.
type MenuHooks struct {
	mu     sync.RWMutex
	hooks  map[string]MenuHook
	logger *zap.Logger
}

func newMenuHooks(logger *zap.Logger) *MenuHooks {
	return &MenuHooks{hooks: make(map[string]MenuHook), logger: logger}
}

// Set registers hook for plugin, replacing any previous one. A nil hook
// removes it.
func (m *MenuHooks) Set(plugin string, hook MenuHook) {
	plugin = strings.TrimSuffix(plugin, ".js")
	m.mu.Lock()
	defer m.mu.Unlock()
	if hook == nil {
		delete(m.hooks, plugin)
		return
	}
	m.hooks[plugin] = hook
}

// Names lists the plugins with a hook, sorted.
func (m *MenuHooks) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.hooks))
	for name := range m.hooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Items runs the hook of plugin. A missing or panicking hook yields nil.
func (m *MenuHooks) Items(plugin string) (items []*menu.Item) {
	plugin = strings.TrimSuffix(plugin, ".js")
	m.mu.RLock()
	hook := m.hooks[plugin]
	m.mu.RUnlock()
	if hook == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("plugin menu hook failed", zap.String("plugin", plugin), zap.Any("panic", r))
			items = nil
		}
	}()
	return hook()
}

// Host owns the state shared by every plugin: the config root, the change
// dispatcher, the translation catalog and the menu hooks.
type Host struct {
	root       string
	dispatcher *Dispatcher
	catalog    *i18n.Catalog
	hooks      *MenuHooks
	logger     *zap.Logger

	mu      sync.Mutex
	watcher *Watcher
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithLogger sets the host logger.
func WithLogger(l *zap.Logger) HostOption {
	return func(h *Host) { h.logger = logging.OrNop(l) }
}

// WithCatalog sets the translation catalog plugins register into.
func WithCatalog(c *i18n.Catalog) HostOption {
	return func(h *Host) { h.catalog = c }
}

// NewHost creates a host over root, usually <data>/config.
func NewHost(root string, opts ...HostOption) *Host {
	h := &Host{root: root, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	if h.catalog == nil {
		h.catalog = i18n.Default()
	}
	h.dispatcher = NewDispatcher(h.logger)
	h.hooks = newMenuHooks(h.logger)
	return h
}

// Root returns the plugin config root.
func (h *Host) Root() string {
	return h.root
}

// Dispatcher returns the change dispatcher.
func (h *Host) Dispatcher() *Dispatcher {
	return h.dispatcher
}

// Hooks returns the plugin menu hooks.
func (h *Host) Hooks() *MenuHooks {
	return h.hooks
}

// Catalog returns the translation catalog.
func (h *Host) Catalog() *i18n.Catalog {
	return h.catalog
}

// Watch starts the shared directory watch. Calling it again is a no-op.
func (h *Host) Watch(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watcher != nil {
		return nil
	}
	w, err := NewWatcher(h.root, h.dispatcher, h.logger)
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return fmt.Errorf("failed to watch %s: %w", h.root, err)
	}
	h.watcher = w
	return nil
}

// Close stops the directory watch.
func (h *Host) Close() {
	h.mu.Lock()
	w := h.watcher
	h.watcher = nil
	h.mu.Unlock()
	if w != nil {
		w.Stop()
	}
}

// Plugin opens the scoped SDK of a plugin. A trailing .js is stripped from
// name. The plugin directory is created and its config file read; defaults
// are used for every key the file does not set.
func (h *Host) Plugin(name string, defaults map[string]any) (*Plugin, error) {
	name = strings.TrimSuffix(name, ".js")
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid plugin name %q", name)
	}

	dir := filepath.Join(h.root, name)
	if err := config.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create plugin config directory: %w", err)
	}

	h.mu.Lock()
	if h.watcher != nil {
		h.watcher.Watch(dir)
	}
	h.mu.Unlock()

	logger := h.logger.With(zap.String("plugin", name))
	p := &Plugin{
		name:   name,
		dir:    dir,
		host:   h,
		logger: logger,
	}
	p.Config = newConfig(dir, defaults, logger)
	p.I18n = &I18n{catalog: h.catalog}

	if err := p.Config.Read(); err != nil {
		logger.Warn("failed to read plugin config", zap.Error(err))
	}
	p.dispose = h.dispatcher.Subscribe(name+"/"+ConfigFile, p.onChange)
	return p, nil
}
