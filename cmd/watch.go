package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/sdk"
)

var watchCmd = &cobra.Command{
	Use:   "watch [plugin...]",
	Short: "Watch plugin config files and print every reload",
	Long: `Watch the config.json of installed plugins under the plugin config
root and print the new config each time one changes on disk.

Without arguments every installed plugin is watched. Stop with Ctrl+C.

Example:
  shellconf watch
  shellconf watch clipboard`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	names := args
	if len(names) == 0 {
		names = app.dir.List()
	}
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("plugins.none_installed", nil))
		return nil
	}

	if err := app.host.Watch(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range names {
		p, err := app.host.Plugin(name, nil)
		if err != nil {
			return err
		}
		defer p.Close()
		watchPlugin(out, p)
		fmt.Fprintf(out, "watching %s\n", p.Config.Path())
	}

	<-ctx.Done()
	return nil
}

func watchPlugin(out io.Writer, p *sdk.Plugin) {
	p.Config.OnReload(func(cfg map[string]any) {
		data, err := json.Marshal(cfg)
		if err != nil {
			p.Log("failed to encode reloaded config", zap.Error(err))
			return
		}
		fmt.Fprintf(out, "[%s] %s reloaded\n%s", time.Now().Format(time.TimeOnly), p.Name(), pretty.Pretty(data))
	})
}
