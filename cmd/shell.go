package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/egoavara/shellconf/internal/autoupdate"
	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/shell"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Shell binary status and updates",
	Long: `Inspect and update the shell binary in the data directory.

An update moves the running binary aside as shell_old.dll and writes the
new release in its place. The shell picks it up on the next restart, after
which the old binary can be cleaned up.

Commands:
  status   Show the installed and the latest shell version
  update   Download the latest shell release
  cleanup  Remove the binary left by an applied update`,
}

var shellStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the installed and the latest shell version",
	Args:  cobra.NoArgs,
	RunE:  runShellStatus,
}

var shellUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Download the latest shell release",
	Args:  cobra.NoArgs,
	RunE:  runShellUpdate,
}

var shellCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove the binary left by an applied update",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.binary.CleanupOld()
	},
}

func init() {
	shellCmd.AddCommand(shellStatusCmd)
	shellCmd.AddCommand(shellUpdateCmd)
	shellCmd.AddCommand(shellCleanupCmd)
	rootCmd.AddCommand(shellCmd)
}

func runShellStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, app.binary.Path())
	if app.checker.UpdatePending() {
		fmt.Fprintf(out, "  %s\n", i18n.T("status.updatePending", nil))
	}

	idx, err := app.reconciler.LoadIndex(cmd.Context())
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("common.load_failed", nil), err)
	}
	info := app.checker.CheckShell(idx)
	if info.HasUpdate {
		fmt.Fprintf(out, "  %s\n", i18n.T("update.shell_available", map[string]any{
			"current": info.CurrentVer,
			"remote":  info.RemoteVer,
		}))
	} else {
		fmt.Fprintf(out, "  %s\n", i18n.T("update.shell_latest", map[string]any{"version": info.RemoteVer}))
	}
	if idx.Shell.Changelog != "" {
		fmt.Fprintf(out, "\n%s\n%s\n", i18n.T("update.changelog", nil), idx.Shell.Changelog)
	}
	return nil
}

func runShellUpdate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	idx, err := app.reconciler.LoadIndex(cmd.Context())
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("common.load_failed", nil), err)
	}
	info := app.checker.CheckShell(idx)
	if !info.HasUpdate {
		fmt.Fprintln(out, i18n.T("update.shell_latest", map[string]any{"version": info.RemoteVer}))
		return nil
	}

	spinner := autoupdate.NewSpinner(out, i18n.T("update.shell_available", map[string]any{
		"current": info.CurrentVer,
		"remote":  info.RemoteVer,
	}))
	spinner.Start()
	err = app.updater.ApplyShell(cmd.Context(), info)
	spinner.Stop(err == nil)
	if err != nil {
		if errors.Is(err, shell.ErrCannotMoveFile) {
			return fmt.Errorf("%s: %s: %w", i18n.T("status.updateFailed", nil), i18n.T("error.cannotMoveFile", nil), err)
		}
		return fmt.Errorf("%s: %w", i18n.T("status.updateFailed", nil), err)
	}
	fmt.Fprintln(out, i18n.T("update.staged", nil))
	return nil
}
