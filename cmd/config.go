package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/settings"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and edit the shell's config.json",
	Long: `Read and edit the shell's config.json.

Keys are dot paths from the document root. Keys shellconf does not know
about are kept as they are.

Example:
  shellconf config show
  shellconf config get context_menu.theme.radius
  shellconf config set context_menu.theme.radius 6
  shellconf config toggle context_menu.vsync`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print config.json",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the location of config.json",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), app.store.Path())
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value at a dot path",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set the value at a dot path",
	Long: `Set the value at a dot path. The value is parsed as JSON, so numbers,
booleans, arrays and objects keep their type. Anything that is not valid
JSON is stored as a string.

Example:
  shellconf config set context_menu.theme.radius 6
  shellconf config set context_menu.theme.acrylic false
  shellconf config set language zh-CN`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove the value at a dot path",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configTogglesCmd = &cobra.Command{
	Use:   "toggles",
	Short: "List the boolean switches and their values",
	Args:  cobra.NoArgs,
	Run:   runConfigToggles,
}

var configToggleCmd = &cobra.Command{
	Use:   "toggle <key>",
	Short: "Flip a boolean switch",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigToggle,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configTogglesCmd)
	configCmd.AddCommand(configToggleCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := app.store.Raw()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		data = []byte("{}")
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	res, err := app.store.GetPath(args[0])
	if err != nil {
		return err
	}
	if !res.Exists() {
		return fmt.Errorf("key not set: %s", args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Raw)
	return nil
}

// parseValue decodes s as JSON and falls back to the plain string.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := app.store.SetPath(args[0], parseValue(args[1])); err != nil {
		return fmt.Errorf("%s", i18n.T("settings.save_failed", map[string]any{"error": err}))
	}
	app.session.Reload()
	fmt.Fprintln(cmd.OutOrStdout(), i18n.T("settings.saved", nil))
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	if err := app.store.DeletePath(args[0]); err != nil {
		return fmt.Errorf("%s", i18n.T("settings.save_failed", map[string]any{"error": err}))
	}
	app.session.Reload()
	fmt.Fprintln(cmd.OutOrStdout(), i18n.T("settings.saved", nil))
	return nil
}

func runConfigToggles(cmd *cobra.Command, args []string) {
	doc := app.session.Document()
	out := cmd.OutOrStdout()
	for _, t := range settings.Toggles {
		fmt.Fprintf(out, "  %-40s %-5t  %s\n", t.Path, doc.Bool(t.Path, t.Default), i18n.T(t.Label, nil))
	}
}

func runConfigToggle(cmd *cobra.Command, args []string) error {
	t, ok := settings.LookupToggle(args[0])
	if !ok {
		return fmt.Errorf("unknown switch: %s (see 'shellconf config toggles')", args[0])
	}
	var value bool
	err := app.session.Update(func(d *settings.Document) error {
		v, err := d.ToggleBool(t.Path, t.Default)
		value = v
		return err
	})
	if err != nil {
		return fmt.Errorf("%s", i18n.T("settings.save_failed", map[string]any{"error": err}))
	}
	fmt.Fprintln(cmd.OutOrStdout(), i18n.T("settings.toggled", map[string]any{
		"name":  i18n.T(t.Label, nil),
		"value": value,
	}))
	return nil
}
