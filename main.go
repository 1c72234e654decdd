package main

import (
	"embed"

	"github.com/jeandeaual/go-locale"

	"github.com/egoavara/shellconf/cmd"
	"github.com/egoavara/shellconf/internal/i18n"
)

//go:embed locales/*.json
var localeFS embed.FS

func main() {
	// The language stored in config.json overrides this once the data
	// directory is known.
	_ = i18n.Init(localeFS, getLocale(), nil)

	// Register plugin aliases (install, delete, search)
	cmd.RegisterPluginAliases()

	cmd.Execute()
}

// getLocale returns the system locale, or en-US when it cannot be detected.
func getLocale() string {
	userLocale, err := locale.GetLocale()
	if err != nil || userLocale == "" {
		return "en-US"
	}
	return userLocale
}
