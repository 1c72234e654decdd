package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
)

var pluginConfigCmd = &cobra.Command{
	Use:   "config <plugin> [key] [value]",
	Short: "Read or edit a plugin's config",
	Long: `Read or edit <data>/config/<plugin>/config.json.

With only a plugin name, prints the whole config. With a key, prints the
value at that dot path. With a key and a value, sets it; the value is
parsed as JSON and stored as a string when it is not valid JSON.

Example:
  shellconf plugin config clipboard
  shellconf plugin config clipboard history.max
  shellconf plugin config clipboard history.max 50`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runPluginConfig,
}

func runPluginConfig(cmd *cobra.Command, args []string) error {
	p, err := app.host.Plugin(installedName(args[0]), nil)
	if err != nil {
		return err
	}
	defer p.Close()
	out := cmd.OutOrStdout()

	switch len(args) {
	case 1:
		return printJSON(out, p.Config.All())
	case 2:
		v := p.Config.Get(args[1])
		if v == nil {
			return fmt.Errorf("key not set: %s", args[1])
		}
		return printJSON(out, v)
	default:
		if err := p.Config.Set(args[1], parseValue(args[2])); err != nil {
			return err
		}
		fmt.Fprintln(out, p.Config.Path())
		return nil
	}
}

func printJSON(out io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = out.Write(pretty.Pretty(data))
	return err
}
