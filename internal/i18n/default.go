package i18n

import (
	"io/fs"

	"go.uber.org/zap"
)

var std = NewCatalog(nil)

// Default returns the process-wide catalog.
func Default() *Catalog {
	return std
}

// Init loads the embedded core locales from localeFS (under locales/) and
// selects the best match for lang.
func Init(localeFS fs.FS, lang string, logger *zap.Logger) error {
	std = NewCatalog(logger)
	if err := std.LoadFS(localeFS, "locales"); err != nil {
		return err
	}
	std.SetLanguage(std.Resolve(lang))
	return nil
}

// T translates a message by its key with optional {param} values.
func T(key string, params map[string]any) string {
	return std.T(key, params)
}

// SetLocale changes the current locale
func SetLocale(lang string) {
	std.SetLanguage(std.Resolve(lang))
}

// IsRTL reports whether the current locale is right to left.
func IsRTL() bool {
	return std.IsRTL()
}
