package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/preset"
	"github.com/egoavara/shellconf/internal/settings"
	"github.com/egoavara/shellconf/internal/tui"
)

// presetCommand describes one preset family exposed on the command line.
type presetCommand struct {
	family  preset.Family
	prefix  string // i18n key prefix, also the family label key suffix
	current func(*settings.Document) string
	apply   func(*settings.Document, string) error
}

var themePresets = presetCommand{
	family:  preset.ThemePresets,
	prefix:  "theme.",
	current: (*settings.Document).ThemePreset,
	apply:   (*settings.Document).ApplyThemePreset,
}

var animationPresets = presetCommand{
	family:  preset.AnimationPresets,
	prefix:  "animation.",
	current: (*settings.Document).AnimationPreset,
	apply:   (*settings.Document).ApplyAnimationPreset,
}

var themeCmd = &cobra.Command{
	Use:   "theme [preset]",
	Short: "Apply a theme preset",
	Long: `Apply a theme preset to context_menu.theme.

Without arguments, opens an interactive selector with a preview of the
values each preset writes. Keys a preset does not manage are kept.

Presets: default, compact, relaxed, rounded, square

Example:
  shellconf theme            # Interactive selector
  shellconf theme compact`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return themePresets.run(cmd, args)
	},
}

var animationCmd = &cobra.Command{
	Use:   "animation [preset]",
	Short: "Apply an animation preset",
	Long: `Apply an animation preset to context_menu.theme.animation.

Without arguments, opens an interactive selector.

Presets: default, fast, none

Example:
  shellconf animation
  shellconf animation none`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return animationPresets.run(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
	rootCmd.AddCommand(animationCmd)
}

func (p presetCommand) label(name string) string {
	return i18n.T(p.prefix+name, nil)
}

func (p presetCommand) run(cmd *cobra.Command, args []string) error {
	current := p.current(app.session.Document())

	var name string
	if len(args) == 1 {
		name = args[0]
	} else {
		selected, confirmed, err := tui.RunPresetSelector(p.family, p.prefix, current)
		if err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
		name = selected
	}

	if _, ok := p.family.Lookup(name); !ok {
		return fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(p.family.Names(), ", "))
	}

	err := app.session.Update(func(d *settings.Document) error {
		return p.apply(d, name)
	})
	if err != nil {
		return fmt.Errorf("%s", i18n.T("settings.save_failed", map[string]any{"error": err}))
	}
	fmt.Fprintln(cmd.OutOrStdout(), i18n.T("settings.preset_applied", map[string]any{
		"family": i18n.T("settings."+strings.TrimSuffix(p.prefix, "."), nil),
		"name":   p.label(name),
	}))
	return nil
}
