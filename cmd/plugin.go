package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/marketplace"
	"github.com/egoavara/shellconf/internal/reconcile"
	"github.com/egoavara/shellconf/internal/settings"
	"github.com/egoavara/shellconf/internal/tui"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Manage plugins",
	Long: `Manage the plugins in the shell's scripts directory.

Commands:
  install   Install a plugin from the current source
  update    Update installed plugin(s)
  delete    Delete an installed plugin
  toggle    Enable or disable a plugin
  priority  Add or remove a plugin from the priority load list
  list      List installed plugins
  search    Search the plugins of the current source
  config    Read or edit a plugin's config`,
}

var pluginListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed plugins",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printInstalled(cmd.OutOrStdout())
	},
}

var pluginToggleCmd = &cobra.Command{
	Use:   "toggle <plugin>",
	Short: "Enable or disable an installed plugin",
	Long: `Enable or disable an installed plugin. A disabled plugin is kept as
<name>.js.disabled and not loaded by the shell.

Example:
  shellconf plugin toggle clipboard`,
	Args: cobra.ExactArgs(1),
	RunE: runPluginToggle,
}

var pluginPriorityCmd = &cobra.Command{
	Use:   "priority <plugin>",
	Short: "Add or remove a plugin from the priority load list",
	Long: `Add a plugin to the front of plugin_load_order, or remove it when it
is already there. Prioritized plugins load before the others.

Example:
  shellconf plugin priority clipboard`,
	Args: cobra.ExactArgs(1),
	RunE: runPluginPriority,
}

var pluginDeleteCmd = &cobra.Command{
	Use:     "delete <plugin>",
	Aliases: []string{"uninstall"},
	Short:   "Delete an installed plugin",
	Long: `Delete an installed plugin, enabled or disabled.

Example:
  shellconf plugin delete clipboard
  shellconf plugin delete clipboard --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runPluginDelete,
}

var pluginDeleteYes bool

func init() {
	pluginDeleteCmd.Flags().BoolVarP(&pluginDeleteYes, "yes", "y", false, "delete without asking")

	pluginCmd.AddCommand(pluginInstallCmd)
	pluginCmd.AddCommand(pluginUpdateCmd)
	pluginCmd.AddCommand(pluginDeleteCmd)
	pluginCmd.AddCommand(pluginToggleCmd)
	pluginCmd.AddCommand(pluginPriorityCmd)
	pluginCmd.AddCommand(pluginListCmd)
	pluginCmd.AddCommand(pluginSearchCmd)
	pluginCmd.AddCommand(pluginConfigCmd)
}

// installedName strips a trailing .js or .js.disabled from a plugin argument.
func installedName(arg string) string {
	arg = strings.TrimSuffix(arg, ".disabled")
	return strings.TrimSuffix(arg, ".js")
}

func printInstalled(out io.Writer) {
	installed := app.dir.Installed()
	if len(installed) == 0 {
		fmt.Fprintln(out, i18n.T("plugins.none_installed", nil))
		return
	}
	doc := app.session.Document()
	for _, p := range installed {
		state := i18n.T("plugins.enabled", nil)
		if !p.Enabled {
			state = i18n.T("plugins.disabled", nil)
		}
		version := p.Version
		if version == "" {
			version = "?"
		}
		priority := ""
		if doc.IsPrioritized(p.Name) {
			priority = "  *"
		}
		fmt.Fprintf(out, "  %-24s v%-10s %s%s\n", p.Name, version, state, priority)
	}
}

func statusLabel(st reconcile.Status) string {
	switch {
	case !st.Installed:
		return i18n.T("plugins.not_installed", nil)
	case st.HasUpdate:
		return fmt.Sprintf("%s (%s)", i18n.T("plugins.update", nil), st.LocalVersion)
	default:
		return i18n.T("plugins.installed", nil)
	}
}

func runPluginToggle(cmd *cobra.Command, args []string) error {
	name := installedName(args[0])
	if !app.dir.Exists(name) {
		return fmt.Errorf("%s", i18n.T("plugins.not_found", map[string]any{"name": name}))
	}
	if err := app.dir.Toggle(name); err != nil {
		return err
	}
	key := "plugins.toggled_off"
	if app.dir.IsEnabled(name) {
		key = "plugins.toggled_on"
	}
	fmt.Fprintln(cmd.OutOrStdout(), i18n.T(key, map[string]any{"name": name}))
	return nil
}

func runPluginPriority(cmd *cobra.Command, args []string) error {
	name := installedName(args[0])
	var prioritized bool
	err := app.session.Update(func(d *settings.Document) error {
		prioritized = d.TogglePriority(name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s", i18n.T("settings.save_failed", map[string]any{"error": err}))
	}
	key := "plugins.unprioritized"
	if prioritized {
		key = "plugins.prioritized"
	}
	fmt.Fprintln(cmd.OutOrStdout(), i18n.T(key, map[string]any{"name": name}))
	return nil
}

func runPluginDelete(cmd *cobra.Command, args []string) error {
	name := installedName(args[0])
	if !app.dir.Exists(name) {
		return fmt.Errorf("%s", i18n.T("plugins.not_found", map[string]any{"name": name}))
	}
	if !pluginDeleteYes {
		title := fmt.Sprintf("%s %s?", i18n.T("action.delete", nil), name)
		ok, err := tui.RunConfirm(title, app.dir.EnabledPath(name))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	if err := app.dir.Delete(name); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), i18n.T("plugins.deleted", map[string]any{"name": name}))
	return nil
}

// findRecord looks a plugin up by index name, ignoring case, or by its
// installed file name.
func findRecord(idx *marketplace.Index, arg string) *marketplace.Record {
	if rec := idx.FindPlugin(arg); rec != nil {
		return rec
	}
	base := installedName(arg)
	for i := range idx.Plugins {
		rec := &idx.Plugins[i]
		if strings.EqualFold(rec.Name, arg) || installedName(rec.LocalPath) == base {
			return rec
		}
	}
	return nil
}
