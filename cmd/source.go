package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/marketplace"
)

var sourceCmd = &cobra.Command{
	Use:     "source [name]",
	Aliases: []string{"marketplace", "mp"},
	Short:   "Show or switch the plugin source",
	Long: `Show the built-in plugin sources, or switch to one of them.

Switching clears the cached index and plugin states and stores the choice
in config.json as plugin_source.

Example:
  shellconf source
  shellconf source "Github Raw"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSource,
}

var sourceIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Fetch and summarize the index of the current source",
	Args:  cobra.NoArgs,
	RunE:  runSourceIndex,
}

func init() {
	sourceCmd.AddCommand(sourceIndexCmd)
}

// lookupSourceName matches name against the built-in sources, ignoring case.
func lookupSourceName(name string) (string, error) {
	for _, s := range marketplace.Sources {
		if strings.EqualFold(s.Name, name) {
			return s.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %q (available: %s)", marketplace.ErrUnknownSource, name,
		strings.Join(marketplace.SourceNames(), ", "))
}

func runSource(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	current := app.reconciler.Source()

	if len(args) == 0 {
		fmt.Fprintln(out, i18n.T("source.current", map[string]any{"name": current.Name}))
		fmt.Fprintln(out, strings.Repeat("-", 40))
		for _, s := range marketplace.Sources {
			marker := "  "
			if s.Name == current.Name {
				marker = "* "
			}
			fmt.Fprintf(out, "%s%-20s %s\n", marker, s.Name, s.BaseURL)
		}
		return nil
	}

	name, err := lookupSourceName(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(out, i18n.T("source.switching", map[string]any{"name": name}))
	if err := app.menuBuilder().SelectSource(cmd.Context(), name); err != nil {
		return err
	}
	fmt.Fprintln(out, i18n.T("source.current", map[string]any{"name": name}))
	return nil
}

func runSourceIndex(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	src := app.reconciler.Source()
	idx, err := app.reconciler.LoadIndex(cmd.Context())
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("common.load_failed", nil), err)
	}
	fmt.Fprintf(out, "%s\n", marketplace.IndexURL(src.BaseURL))
	fmt.Fprintf(out, "  %s\n", i18n.T("update.shell", map[string]any{"version": idx.Shell.Version}))
	fmt.Fprintf(out, "  Plugins: %d (%d pages)\n", len(idx.Plugins), idx.PageCount(marketplace.PageSize))
	return nil
}
