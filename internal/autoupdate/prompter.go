package autoupdate

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/egoavara/shellconf/internal/i18n"
)

// ShowUpdateSummary displays a summary of available updates
func ShowUpdateSummary(w io.Writer, result *CheckResult) {
	if result.UpdatePending {
		fmt.Fprintln(w, i18n.T("status.updatePending", nil))
	}
	if !result.HasAnyUpdate {
		fmt.Fprintln(w, i18n.T("update.no_updates", nil))
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, i18n.T("update.available", nil))
	fmt.Fprintln(w)

	if result.Shell.HasUpdate {
		fmt.Fprintf(w, "  [%s] %s (%s → %s)%s\n",
			i18n.T("update.type_shell", nil),
			result.Shell.Name,
			result.Shell.CurrentVer,
			result.Shell.RemoteVer,
			directionSuffix(result.Shell.Direction),
		)
	}

	for _, p := range result.Plugins {
		if p.HasUpdate {
			fmt.Fprintf(w, "  [%s] %s (%s → %s)%s\n",
				i18n.T("update.type_plugin", nil),
				p.Name,
				p.CurrentVer,
				p.RemoteVer,
				directionSuffix(p.Direction),
			)
		}
	}

	for _, err := range result.Errors {
		fmt.Fprintf(w, "  ! %v\n", err)
	}

	fmt.Fprintln(w)
}

func directionSuffix(d Direction) string {
	if d == DirectionDowngrade {
		return " [" + i18n.T("update.downgrade", nil) + "]"
	}
	return ""
}

// PromptUpdate asks the user if they want to apply updates
func PromptUpdate(in io.Reader, w io.Writer, result *CheckResult) bool {
	if !result.HasAnyUpdate {
		return false
	}

	fmt.Fprint(w, i18n.T("update.prompt", nil)+" [Y/n] ")

	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return false
	}

	input = strings.TrimSpace(strings.ToLower(input))

	// Default to yes if empty or explicit yes
	return input == "" || input == "y" || input == "yes"
}
