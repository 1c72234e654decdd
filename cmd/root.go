package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/egoavara/shellconf/internal/config"
	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/logging"
)

var (
	rootCmd = &cobra.Command{
		Use:           "shellconf",
		Short:         "Manage Breeze Shell settings and plugins",
		SilenceErrors: true,
		SilenceUsage:  true,
		Long: `shellconf manages the configuration and plugins of Breeze Shell.

It edits the shell's config.json without losing keys it does not know,
applies theme and animation presets, installs and updates plugins from
the plugin sources, and keeps the shell binary up to date.

Commands:
  config     Read and edit config.json
  theme      Apply a theme preset
  animation  Apply an animation preset
  language   Show or set the shell language
  source     Show or switch the plugin source
  plugin     Manage plugins (install, update, toggle, delete, search, config)
  shell      Shell binary status and updates
  list       Show the source, the shell and installed plugins
  update     Check for and apply updates
  menu       Print the Manage menu
  watch      Watch plugin config files

Shortcuts (aliases):
  install    = plugin install
  delete     = plugin delete
  search     = plugin search`,
		PersistentPreRunE: setup,
		PersistentPostRun: teardown,
	}
)

func setup(cmd *cobra.Command, args []string) error {
	v := config.NewViper()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	opts := config.Resolve(v)

	logger, err := logging.New(opts.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("options resolved",
		zap.String("data_dir", opts.DataDir),
		zap.String("source", opts.Source),
		zap.String("shell_version", opts.ShellVersion),
		zap.Duration("timeout", opts.Timeout))

	app = newApp(opts, logger)

	if lang := app.session.Document().Language; lang != "" {
		i18n.SetLocale(lang)
	}
	i18n.Default().LoadPluginLocales(os.DirFS(app.paths.PluginLocalesDir()))
	return nil
}

func teardown(cmd *cobra.Command, args []string) {
	if app == nil {
		return
	}
	app.Close()
	_ = app.logger.Sync()
}

// createAliasCommand creates a root-level alias that shares flags with a plugin subcommand
func createAliasCommand(pluginSubCmd *cobra.Command, aliases []string) *cobra.Command {
	aliasCmd := &cobra.Command{
		Use:     pluginSubCmd.Use,
		Short:   pluginSubCmd.Short + " (alias)",
		Long:    pluginSubCmd.Long,
		Args:    pluginSubCmd.Args,
		Aliases: aliases,
		RunE:    pluginSubCmd.RunE,
	}
	// Copy all flags from the original command
	pluginSubCmd.Flags().VisitAll(func(f *pflag.Flag) {
		aliasCmd.Flags().AddFlag(f)
	})
	return aliasCmd
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("data-dir", config.DefaultDataDir(), "shell data directory")
	flags.String("source", "", "plugin source (overrides plugin_source in config.json)")
	flags.String("shell-version", "", "version of the installed shell binary")
	flags.Duration("timeout", config.DefaultTimeout, "timeout for remote requests")
	flags.BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(pluginCmd)
	rootCmd.AddCommand(sourceCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(updateCmd)
}

// RegisterPluginAliases registers root-level aliases for plugin subcommands
// Must be called after plugin subcommands are initialized
func RegisterPluginAliases() {
	rootCmd.AddCommand(createAliasCommand(pluginInstallCmd, nil))
	rootCmd.AddCommand(createAliasCommand(pluginDeleteCmd, []string{"remove", "rm"}))
	rootCmd.AddCommand(createAliasCommand(pluginSearchCmd, nil))
}
