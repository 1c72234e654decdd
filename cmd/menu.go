package cmd

import (
	"github.com/spf13/cobra"

	"github.com/egoavara/shellconf/internal/menu"
)

var menuDepth int

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Print the Manage menu tree",
	Long: `Print the "Manage" context menu as the shell would show it: the
plugin market, the settings and the installed plugins, with submenus
expanded up to --depth levels.

Example:
  shellconf menu
  shellconf menu --depth 3`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		menu.Render(cmd.OutOrStdout(), app.menuBuilder().Build(cmd.Context()), menuDepth)
	},
}

func init() {
	menuCmd.Flags().IntVarP(&menuDepth, "depth", "d", 2, "submenu levels to expand")
	rootCmd.AddCommand(menuCmd)
}
