package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/marketplace"
	"github.com/egoavara/shellconf/internal/reconcile"
	"github.com/egoavara/shellconf/internal/search"
	"github.com/egoavara/shellconf/internal/tui"
)

var pluginSearchCmd = &cobra.Command{
	Use:     "search [keyword]",
	Aliases: []string{"store"},
	Short:   "Search the plugins of the current source",
	Long: `Search the plugins of the current source with fuzzy matching.

Without arguments, opens an interactive finder where plugins can be
marked for install, update or delete.
With a keyword, prints the matching plugins.

The search looks through plugin names, descriptions and authors.

Example:
  shellconf search             # Interactive finder
  shellconf search clipboard   # Text search`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPluginSearch,
}

func runPluginSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	idx, err := app.reconciler.LoadIndex(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("common.load_failed", nil), err)
	}
	statuses, err := app.reconciler.Refresh(ctx, idx)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return runInteractiveSearch(cmd, idx, statuses)
	}
	return runTextSearch(cmd, idx, statuses, args[0])
}

// runInteractiveSearch runs the TUI finder and applies the marked changes
func runInteractiveSearch(cmd *cobra.Command, idx *marketplace.Index, statuses map[string]reconcile.Status) error {
	out := cmd.OutOrStdout()
	result, err := tui.RunPluginFinder(idx, statuses)
	if err != nil {
		return err
	}
	if result.Cancelled {
		fmt.Fprintln(out, i18n.T("plugins.search_cancelled", nil))
		return nil
	}

	var errs []error
	installs := make([]marketplace.Record, 0, len(result.ToInstall)+len(result.ToUpdate))
	for _, item := range result.ToInstall {
		installs = append(installs, item.Plugin)
	}
	if len(installs) > 0 {
		fmt.Fprintln(out, i18n.T("finder.to_install", map[string]any{"count": len(installs)}))
		if err := installRecords(cmd, installs, "plugins.install"); err != nil {
			errs = append(errs, err)
		}
	}

	updates := make([]marketplace.Record, 0, len(result.ToUpdate))
	for _, item := range result.ToUpdate {
		updates = append(updates, item.Plugin)
	}
	if len(updates) > 0 {
		fmt.Fprintln(out, i18n.T("finder.to_update", map[string]any{"count": len(updates)}))
		if err := installRecords(cmd, updates, "plugins.update"); err != nil {
			errs = append(errs, err)
		}
	}

	if len(result.ToDelete) > 0 {
		fmt.Fprintln(out, i18n.T("finder.to_delete", map[string]any{"count": len(result.ToDelete)}))
		for _, item := range result.ToDelete {
			name := installedName(item.Plugin.LocalPath)
			if err := app.dir.Delete(name); err != nil {
				fmt.Fprintf(out, "    %v\n", err)
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(out, "    %s\n", i18n.T("plugins.deleted", map[string]any{"name": name}))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", i18n.T("update.partial_success", nil))
	}
	return nil
}

// runTextSearch prints the fuzzy matches of keyword
func runTextSearch(cmd *cobra.Command, idx *marketplace.Index, statuses map[string]reconcile.Status, keyword string) error {
	out := cmd.OutOrStdout()
	results := search.FuzzySearch(idx, keyword)
	if len(results) == 0 {
		fmt.Fprintln(out, i18n.T("plugins.no_results", map[string]any{"query": keyword}))
		return nil
	}

	fmt.Fprintln(out, i18n.T("plugins.search_results", map[string]any{"count": len(results)}))
	fmt.Fprintln(out)
	for _, r := range results {
		fmt.Fprintf(out, "  %s (v%s)  %s\n", r.Plugin.Name, r.Plugin.Version, statusLabel(statuses[r.Plugin.Name]))
		if r.Plugin.Description != "" {
			fmt.Fprintf(out, "    %s\n", strings.TrimSpace(r.Plugin.Description))
		}
		if r.Plugin.Author != "" {
			fmt.Fprintf(out, "    %s\n", i18n.T("plugin.author", map[string]any{"author": r.Plugin.Author}))
		}
		fmt.Fprintln(out)
	}
	return nil
}
