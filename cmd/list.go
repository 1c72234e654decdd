package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/egoavara/shellconf/internal/i18n"
)

var (
	listAll bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the plugin source, the shell and installed plugins",
	Long: `Show the current plugin source, the shell binary and installed plugins.

Example:
  shellconf list
  shellconf list --all  # Also show the plugins of the current source`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "show available plugins from the current source")
}

func runList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	src := app.reconciler.Source()
	fmt.Fprintln(out, i18n.T("source.current", map[string]any{"name": src.Name}))
	fmt.Fprintf(out, "  %s\n", src.BaseURL)
	fmt.Fprintln(out)

	version := app.opts.ShellVersion
	if version == "" {
		version = "?"
	}
	fmt.Fprintln(out, i18n.T("update.shell", map[string]any{"version": version}))
	fmt.Fprintf(out, "  %s\n", app.binary.Path())
	if app.binary.UpdatePending() {
		fmt.Fprintf(out, "  %s\n", i18n.T("status.updatePending", nil))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, i18n.T("menu.installedPlugins", nil))
	fmt.Fprintln(out, strings.Repeat("-", 40))
	printInstalled(out)

	if !listAll {
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, i18n.T("menu.pluginMarket", nil))
	fmt.Fprintln(out, strings.Repeat("-", 40))
	idx, err := app.reconciler.LoadIndex(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "  %s: %v\n", i18n.T("common.load_failed", nil), err)
		return nil
	}
	statuses, err := app.reconciler.Refresh(cmd.Context(), idx)
	if err != nil {
		return err
	}
	for _, rec := range idx.Plugins {
		fmt.Fprintf(out, "  %s (v%s)  %s\n", rec.Name, rec.Version, statusLabel(statuses[rec.Name]))
		if rec.Description != "" {
			fmt.Fprintf(out, "    %s\n", rec.Description)
		}
	}
	return nil
}
