package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/egoavara/shellconf/internal/autoupdate"
	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/marketplace"
	"github.com/egoavara/shellconf/internal/reconcile"
)

var pluginInstallCmd = &cobra.Command{
	Use:   "install <plugin>...",
	Short: "Install plugins from the current source",
	Long: `Install one or more plugins from the current plugin source. A plugin
is named by its index name or by its file name.

Example:
  shellconf install "Clipboard History"
  shellconf plugin install clipboard quick-terminal`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPluginInstall,
}

var pluginUpdateCmd = &cobra.Command{
	Use:   "update [plugin...]",
	Short: "Update installed plugin(s)",
	Long: `Update all installed plugins whose version differs from the index, or
the named plugins only.

Use --force to reinstall the named plugins regardless of version.

Example:
  shellconf plugin update
  shellconf plugin update clipboard --force`,
	RunE: runPluginUpdate,
}

var pluginUpdateForce bool

func init() {
	pluginUpdateCmd.Flags().BoolVarP(&pluginUpdateForce, "force", "f", false, "reinstall regardless of version")
}

// resolveRecords maps plugin arguments onto index records.
func resolveRecords(idx *marketplace.Index, args []string) ([]marketplace.Record, error) {
	recs := make([]marketplace.Record, 0, len(args))
	for _, arg := range args {
		rec := findRecord(idx, arg)
		if rec == nil {
			return nil, fmt.Errorf("%s", i18n.T("plugins.not_found", map[string]any{"name": arg}))
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}

// installRecords installs recs one after another behind a spinner each.
func installRecords(cmd *cobra.Command, recs []marketplace.Record, labelKey string) error {
	out := cmd.OutOrStdout()
	baseURL := app.reconciler.Source().BaseURL

	var errs []error
	for _, rec := range recs {
		spinner := autoupdate.NewSpinner(out, fmt.Sprintf("%s %s (v%s)", i18n.T(labelKey, nil), rec.Name, rec.Version))
		spinner.Start()
		_, err := app.reconciler.Install(cmd.Context(), rec, baseURL)
		if errors.Is(err, reconcile.ErrInstallInFlight) {
			err = nil
		}
		spinner.Stop(err == nil)
		if err != nil {
			fmt.Fprintf(out, "    %s\n", i18n.T("plugins.install_failed", map[string]any{"name": rec.Name, "error": err}))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func runPluginInstall(cmd *cobra.Command, args []string) error {
	idx, err := app.reconciler.LoadIndex(cmd.Context())
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("common.load_failed", nil), err)
	}
	recs, err := resolveRecords(idx, args)
	if err != nil {
		return err
	}
	return installRecords(cmd, recs, "plugins.install")
}

func runPluginUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	idx, err := app.reconciler.LoadIndex(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("common.load_failed", nil), err)
	}

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		spinner := autoupdate.NewSpinner(out, i18n.T("status.updating", nil))
		spinner.Start()
		updated, err := app.reconciler.UpdateAll(ctx, idx, app.reconciler.Source().BaseURL)
		spinner.Stop(err == nil)
		if err != nil {
			return err
		}
		if len(updated) == 0 {
			fmt.Fprintln(out, i18n.T("plugins.up_to_date", nil))
		}
		for _, name := range updated {
			fmt.Fprintf(out, "    %s\n", i18n.T("plugins.install_success", map[string]any{"name": name}))
		}
		return nil
	}

	named, err := resolveRecords(idx, args)
	if err != nil {
		return err
	}
	statuses, err := app.reconciler.Refresh(ctx, idx)
	if err != nil {
		return err
	}
	var recs []marketplace.Record
	for _, rec := range named {
		if pluginUpdateForce || statuses[rec.Name].HasUpdate {
			recs = append(recs, rec)
		}
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, i18n.T("plugins.up_to_date", nil))
		return nil
	}
	return installRecords(cmd, recs, "plugins.update")
}
