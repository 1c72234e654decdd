package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/egoavara/shellconf/internal/autoupdate"
	"github.com/egoavara/shellconf/internal/i18n"
)

var (
	updateYes       bool
	updateCheckOnly bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for and apply shell and plugin updates",
	Long: `Check the current plugin source for a newer shell binary and for
updates of installed plugins, then apply them.

The shell version is compared only when it is known (--shell-version or
SHELLCONF_SHELL_VERSION).

Example:
  shellconf update            # Ask before applying
  shellconf update --yes      # Apply without asking
  shellconf update --check    # Only report`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false, "apply updates without asking")
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "only report available updates")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	spinner := autoupdate.NewSpinner(out, i18n.T("update.checking", nil))
	spinner.Start()
	result, err := app.checker.Check(ctx)
	spinner.Stop(err == nil)
	if err != nil {
		return err
	}

	autoupdate.ShowUpdateSummary(out, result)
	if !result.HasAnyUpdate || updateCheckOnly {
		return nil
	}
	if !updateYes && !autoupdate.PromptUpdate(os.Stdin, out, result) {
		return nil
	}
	return app.updater.ApplyUpdates(ctx, result)
}
