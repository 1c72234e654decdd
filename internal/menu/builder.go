// Package menu builds the "Manage" context menu tree: the plugin market,
// the settings switches and the installed plugin list.
package menu

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/egoavara/shellconf/internal/autoupdate"
	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/logging"
	"github.com/egoavara/shellconf/internal/marketplace"
	"github.com/egoavara/shellconf/internal/plugin"
	"github.com/egoavara/shellconf/internal/preset"
	"github.com/egoavara/shellconf/internal/reconcile"
	"github.com/egoavara/shellconf/internal/settings"
	"github.com/egoavara/shellconf/internal/shell"
)

// Builder assembles the menu from the shell's live state. Submenus read the
// state when opened, so a built tree stays current.
type Builder struct {
	Session    *settings.Session
	Dir        *plugin.Directory
	Reconciler *reconcile.Reconciler
	Checker    *autoupdate.Checker
	Updater    *autoupdate.Updater
	Catalog    *i18n.Catalog
	// PluginMenu returns the entries a plugin adds to its own submenu.
	PluginMenu func(name string) []*Item
	Logger     *zap.Logger
}

func (b *Builder) t(key string, params map[string]any) string {
	if b.Catalog == nil {
		return i18n.T(key, params)
	}
	return b.Catalog.T(key, params)
}

func (b *Builder) logger() *zap.Logger {
	return logging.OrNop(b.Logger)
}

// Build returns the root "Manage" entry.
func (b *Builder) Build(ctx context.Context) *Item {
	return &Item{
		Name: b.t("menu.manage", nil),
		Submenu: func() []*Item {
			items := []*Item{
				{
					Name:    b.t("menu.pluginMarket", nil),
					Submenu: func() []*Item { return b.MarketItems(ctx, 1) },
				},
				{
					Name:    b.t("menu.settings", nil),
					Submenu: b.SettingsItems,
				},
				Spacer(),
			}
			return append(items, b.InstalledItems()...)
		},
	}
}

// MarketItems lists the shell update entry, one page of the plugin index
// and the source selector.
func (b *Builder) MarketItems(ctx context.Context, page int) []*Item {
	idx, err := b.Reconciler.LoadIndex(ctx)
	if err != nil {
		b.logger().Warn("failed to load plugin index", zap.Error(err))
		return []*Item{
			{Name: fmt.Sprintf("%s: %v", b.t("common.load_failed", nil), err), Disabled: true},
			b.sourceItem(ctx),
		}
	}

	items := []*Item{b.shellItem(ctx, idx), Spacer()}

	statuses, err := b.Reconciler.Refresh(ctx, idx)
	if err != nil {
		b.logger().Warn("failed to refresh plugin statuses", zap.Error(err))
		items = append(items, &Item{Name: b.t("plugins.load_status_failed", nil), Disabled: true})
	} else {
		for _, rec := range idx.Page(page, marketplace.PageSize) {
			items = append(items, b.pluginItem(ctx, rec, statuses[rec.Name]))
		}
		items = append(items, b.pageItems(ctx, idx, page)...)
	}

	return append(items, b.sourceItem(ctx))
}

func (b *Builder) shellItem(ctx context.Context, idx *marketplace.Index) *Item {
	info := b.Checker.CheckShell(idx)

	var name string
	switch {
	case b.Checker.UpdatePending():
		name = b.t("status.updatePending", nil)
	case !info.HasUpdate:
		name = b.t("update.shell_latest", map[string]any{"version": info.CurrentVer})
	default:
		name = b.t("update.shell_available", map[string]any{"current": info.CurrentVer, "remote": info.RemoteVer})
	}

	item := &Item{
		Name:    name,
		Checked: !info.HasUpdate,
		Submenu: func() []*Item {
			var lines []*Item
			for _, l := range SplitLines(idx.Shell.Changelog, LineWidth) {
				lines = append(lines, &Item{Name: l})
			}
			return lines
		},
	}
	item.Action = func() error {
		if !info.HasUpdate {
			return nil
		}
		if err := b.Updater.ApplyShell(ctx, info); err != nil {
			item.Name = b.t("status.updateFailed", nil) + ": " + b.updateError(err)
			return err
		}
		item.Name = b.t("status.updatePending", nil)
		item.Checked = true
		item.Disabled = true
		return nil
	}
	return item
}

func (b *Builder) updateError(err error) string {
	if errors.Is(err, shell.ErrCannotMoveFile) {
		return b.t("error.cannotMoveFile", nil)
	}
	return err.Error()
}

func (b *Builder) pluginItem(ctx context.Context, rec marketplace.Record, st reconcile.Status) *Item {
	name := rec.Name
	if st.HasUpdate {
		name = fmt.Sprintf("%s (%s -> %s)", rec.Name, st.LocalVersion, rec.Version)
	}
	upToDate := st.Installed && !st.HasUpdate

	item := &Item{
		Name:     name,
		Checked:  upToDate,
		Disabled: upToDate,
		Submenu: func() []*Item {
			preview := []*Item{
				{Name: b.t("plugin.version", map[string]any{"version": rec.Version})},
				{Name: b.t("plugin.author", map[string]any{"author": rec.Author})},
			}
			for _, l := range SplitLines(rec.Description, LineWidth) {
				preview = append(preview, &Item{Name: l})
			}
			return preview
		},
	}
	item.Action = func() error {
		if item.Disabled {
			return nil
		}
		_, err := b.Reconciler.Install(ctx, rec, b.Reconciler.Source().BaseURL)
		if errors.Is(err, reconcile.ErrInstallInFlight) {
			return nil
		}
		if err != nil {
			url := marketplace.ResolveURL(b.Reconciler.Source().BaseURL, rec.Path)
			item.Name = rec.Name
			item.Submenu = func() []*Item {
				return []*Item{{Name: err.Error()}, {Name: url}}
			}
			return err
		}
		item.Name = rec.Name
		item.Checked = true
		item.Disabled = true
		return nil
	}
	return item
}

func (b *Builder) pageItems(ctx context.Context, idx *marketplace.Index, page int) []*Item {
	total := idx.PageCount(marketplace.PageSize)
	if total <= 1 {
		return nil
	}

	items := []*Item{Spacer()}
	if page > 1 {
		items = append(items, &Item{
			Name:    b.t("menu.prevPage", nil),
			Submenu: func() []*Item { return b.MarketItems(ctx, page-1) },
		})
	}
	items = append(items, &Item{
		Name:     b.t("menu.page", map[string]any{"page": page, "total": total}),
		Disabled: true,
	})
	if page < total {
		items = append(items, &Item{
			Name:    b.t("menu.nextPage", nil),
			Submenu: func() []*Item { return b.MarketItems(ctx, page+1) },
		})
	}
	return items
}

func (b *Builder) sourceItem(ctx context.Context) *Item {
	current := b.Reconciler.Source().Name
	return &Item{
		Name: b.t("plugin.currentSource", map[string]any{"name": current}),
		Submenu: func() []*Item {
			var items []*Item
			for _, s := range marketplace.Sources {
				name := s.Name
				items = append(items, &Item{
					Name:    name,
					Checked: name == current,
					Action:  func() error { return b.SelectSource(ctx, name) },
				})
			}
			return items
		},
	}
}

// SelectSource switches the plugin source and records it in the settings.
func (b *Builder) SelectSource(ctx context.Context, name string) error {
	if err := b.Reconciler.SelectSource(name); err != nil {
		return err
	}
	return b.Session.Update(func(d *settings.Document) error {
		d.PluginSource = name
		return nil
	})
}

// SettingsItems lists the priority load list, the preset pickers and the
// boolean switches.
func (b *Builder) SettingsItems() []*Item {
	items := []*Item{
		{Name: b.t("settings.priority_load_plugins", nil), Submenu: b.priorityItems},
		Spacer(),
		{Name: b.t("settings.theme", nil), Submenu: func() []*Item {
			return b.presetItems("theme.", preset.ThemePresets, (*settings.Document).ThemePreset, (*settings.Document).ApplyThemePreset)
		}},
		{Name: b.t("settings.animation", nil), Submenu: func() []*Item {
			return b.presetItems("animation.", preset.AnimationPresets, (*settings.Document).AnimationPreset, (*settings.Document).ApplyAnimationPreset)
		}},
		{Name: b.t("settings.language", nil), Submenu: b.languageItems},
		Spacer(),
	}

	doc := b.Session.Document()
	for _, tg := range settings.Toggles {
		path, def := tg.Path, tg.Default
		items = append(items, &Item{
			Name:    b.t(tg.Label, nil),
			Checked: doc.Bool(path, def),
			Action: func() error {
				return b.Session.Update(func(d *settings.Document) error {
					_, err := d.ToggleBool(path, def)
					return err
				})
			},
		})
	}
	return items
}

func (b *Builder) priorityItems() []*Item {
	doc := b.Session.Document()
	var items []*Item
	for _, p := range b.Dir.Installed() {
		if !p.Enabled {
			continue
		}
		name := p.Name
		items = append(items, &Item{
			Name:    name,
			Checked: doc.IsPrioritized(name),
			Action: func() error {
				return b.Session.Update(func(d *settings.Document) error {
					d.TogglePriority(name)
					return nil
				})
			},
		})
	}
	return items
}

func (b *Builder) presetItems(
	prefix string,
	family preset.Family,
	current func(*settings.Document) string,
	apply func(*settings.Document, string) error,
) []*Item {
	selected := current(b.Session.Document())

	var items []*Item
	for _, name := range family.Names() {
		name := name // per-iteration copy (pre-Go 1.22 loop semantics)
		items = append(items, &Item{
			Name:     b.t(prefix+name, nil),
			Checked:  name == selected,
			Disabled: name == selected,
			Action: func() error {
				return b.Session.Update(func(d *settings.Document) error {
					return apply(d, name)
				})
			},
		})
	}
	if selected == preset.Custom {
		items = append(items, &Item{Name: b.t(prefix+preset.Custom, nil), Checked: true, Disabled: true})
	}
	return items
}

func (b *Builder) languageItems() []*Item {
	catalog := b.Catalog
	if catalog == nil {
		catalog = i18n.Default()
	}
	current := catalog.Language()

	var items []*Item
	for _, lang := range catalog.AvailableLanguages() {
		lang := lang // per-iteration copy (pre-Go 1.22 loop semantics)
		items = append(items, &Item{
			Name:    lang,
			Checked: lang == current,
			Action: func() error {
				catalog.SetLanguage(lang)
				return b.Session.Update(func(d *settings.Document) error {
					d.Language = lang
					return nil
				})
			},
		})
	}
	return items
}

// InstalledItems lists every local plugin with an enable switch, a delete
// entry and the plugin's own menu entries.
func (b *Builder) InstalledItems() []*Item {
	var items []*Item
	for _, p := range b.Dir.Installed() {
		name := p.Name
		item := &Item{Name: name, Checked: p.Enabled}
		item.Action = func() error {
			if err := b.Dir.Toggle(name); err != nil {
				return err
			}
			item.Checked = b.Dir.IsEnabled(name)
			return nil
		}
		item.Submenu = func() []*Item {
			sub := []*Item{{
				Name: b.t("action.delete", nil),
				Action: func() error {
					return b.Dir.Delete(name)
				},
			}}
			if b.PluginMenu != nil {
				sub = append(sub, b.PluginMenu(name)...)
			}
			return sub
		}
		items = append(items, item)
	}
	return items
}
