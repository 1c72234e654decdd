package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/settings"
)

var languageCmd = &cobra.Command{
	Use:     "language [code]",
	Aliases: []string{"lang"},
	Short:   "Show or set the shell language",
	Long: `Show the current language and the available ones, or set the
language stored in config.json.

Example:
  shellconf language
  shellconf language zh-CN`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLanguage,
}

func init() {
	rootCmd.AddCommand(languageCmd)
}

func runLanguage(cmd *cobra.Command, args []string) error {
	catalog := i18n.Default()
	out := cmd.OutOrStdout()
	available := catalog.AvailableLanguages()

	if len(args) == 0 {
		fmt.Fprintln(out, i18n.T("language.current", map[string]any{"lang": catalog.Language()}))
		for _, lang := range available {
			marker := "  "
			if lang == catalog.Language() {
				marker = "* "
			}
			fmt.Fprintf(out, "%s%s\n", marker, lang)
		}
		return nil
	}

	lang := args[0]
	if !slices.Contains(available, lang) {
		return fmt.Errorf("unsupported language %q (available: %s)", lang, strings.Join(available, ", "))
	}
	err := app.session.Update(func(d *settings.Document) error {
		d.Language = lang
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s", i18n.T("settings.save_failed", map[string]any{"error": err}))
	}
	catalog.SetLanguage(lang)
	fmt.Fprintln(out, i18n.T("language.set", map[string]any{"lang": lang}))
	return nil
}
