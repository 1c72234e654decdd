package config

import (
	"os"
	"path/filepath"
	"strings"
)

var (
	homeDir string
)

func init() {
	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		homeDir = "~"
	}
}

// ToolDir returns the shellconf tool directory path
// ~/.config/shellconf/
func ToolDir() string {
	return filepath.Join(homeDir, ".config", "shellconf")
}

// ConfigPath returns the optional tool config file path
// ~/.config/shellconf/config.json
func ConfigPath() string {
	return filepath.Join(ToolDir(), "config.json")
}

// DefaultDataDir returns the shell's default data directory
// ~/.breeze-shell/
func DefaultDataDir() string {
	return filepath.Join(homeDir, ".breeze-shell")
}

// Paths is the on-disk layout of one shell data directory.
type Paths struct {
	Root string
}

// DataDir returns the data directory itself.
func (p Paths) DataDir() string {
	return p.Root
}

// SettingsPath returns the shell settings document path
// <data>/config.json
func (p Paths) SettingsPath() string {
	return filepath.Join(p.Root, "config.json")
}

// ScriptsDir returns the plugin scripts directory path
// <data>/scripts/
func (p Paths) ScriptsDir() string {
	return filepath.Join(p.Root, "scripts")
}

// PluginConfigRoot returns the directory holding every plugin's config
// <data>/config/
func (p Paths) PluginConfigRoot() string {
	return filepath.Join(p.Root, "config")
}

// PluginConfigDir returns one plugin's config directory. A trailing .js is
// stripped from name.
// <data>/config/<name>/
func (p Paths) PluginConfigDir(name string) string {
	return filepath.Join(p.PluginConfigRoot(), strings.TrimSuffix(name, ".js"))
}

// ShellBinaryPath returns the shell binary path
// <data>/shell.dll
func (p Paths) ShellBinaryPath() string {
	return filepath.Join(p.Root, "shell.dll")
}

// ShellOldBinaryPath returns the path the previous binary is moved to while
// an update is pending
// <data>/shell_old.dll
func (p Paths) ShellOldBinaryPath() string {
	return filepath.Join(p.Root, "shell_old.dll")
}

// LocalesDir returns the locale directory path
// <data>/locales/
func (p Paths) LocalesDir() string {
	return filepath.Join(p.Root, "locales")
}

// PluginLocalesDir returns the directory of plugin-shipped locale files
// <data>/locales/plugins/
func (p Paths) PluginLocalesDir() string {
	return filepath.Join(p.LocalesDir(), "plugins")
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
