// Package plugin scans the shell's plugin scripts directory. A plugin is a
// single script that is enabled as <name>.js or disabled as
// <name>.js.disabled; the file system is the only source of truth.
package plugin

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/egoavara/shellconf/internal/config"
	"github.com/egoavara/shellconf/internal/logging"
)

const (
	enabledSuffix  = ".js"
	disabledSuffix = ".disabled"
)

// ErrInvalidLocalPath is returned for an index local_path that is not a plain
// file name inside the scripts directory.
var ErrInvalidLocalPath = errors.New("invalid plugin local path")

// CheckLocalPath reports whether localPath names a file directly under the
// scripts directory.
func CheckLocalPath(localPath string) error {
	if localPath == "" || strings.ContainsAny(localPath, `/\`) || !filepath.IsLocal(localPath) {
		return fmt.Errorf("%w: %q", ErrInvalidLocalPath, localPath)
	}
	return nil
}

// Installed describes one plugin found on disk.
type Installed struct {
	Name    string
	Enabled bool
	Path    string
	Version string
}

// Directory is the plugin scripts directory.
type Directory struct {
	root   string
	logger *zap.Logger
}

// NewDirectory creates a Directory rooted at root (usually <data>/scripts).
func NewDirectory(root string, logger *zap.Logger) *Directory {
	return &Directory{root: root, logger: logging.OrNop(logger)}
}

// Root returns the scripts directory path.
func (d *Directory) Root() string {
	return d.root
}

// baseName strips the plugin suffixes from a file name. ok is false for
// files that are not plugin scripts.
func baseName(file string) (name string, enabled bool, ok bool) {
	switch {
	case strings.HasSuffix(file, enabledSuffix+disabledSuffix):
		return strings.TrimSuffix(file, enabledSuffix+disabledSuffix), false, true
	case strings.HasSuffix(file, enabledSuffix):
		return strings.TrimSuffix(file, enabledSuffix), true, true
	case strings.HasSuffix(file, disabledSuffix):
		return strings.TrimSuffix(file, disabledSuffix), false, true
	default:
		return "", false, false
	}
}

// List returns the sorted, distinct plugin names in the directory. A read
// failure is logged and yields an empty list.
func (d *Directory) List() []string {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if !os.IsNotExist(err) {
			d.logger.Warn("failed to read plugin directory", zap.String("path", d.root), zap.Error(err))
		}
		return []string{}
	}

	seen := make(map[string]struct{}, len(entries))
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, _, ok := baseName(e.Name())
		if !ok || name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnabledPath returns <root>/<name>.js.
func (d *Directory) EnabledPath(name string) string {
	return filepath.Join(d.root, name+enabledSuffix)
}

// DisabledPath returns <root>/<name>.js.disabled.
func (d *Directory) DisabledPath(name string) string {
	return filepath.Join(d.root, name+enabledSuffix+disabledSuffix)
}

// IsEnabled reports whether the enabled form exists and the disabled form
// does not.
func (d *Directory) IsEnabled(name string) bool {
	return exists(d.EnabledPath(name)) && !exists(d.DisabledPath(name))
}

// Exists reports whether either form of name exists.
func (d *Directory) Exists(name string) bool {
	return exists(d.EnabledPath(name)) || exists(d.DisabledPath(name))
}

// Toggle renames the enabled form to the disabled form or back. It is a
// no-op when neither exists.
func (d *Directory) Toggle(name string) error {
	enabled, disabled := d.EnabledPath(name), d.DisabledPath(name)

	switch {
	case exists(enabled):
		if err := os.Rename(enabled, disabled); err != nil {
			return fmt.Errorf("failed to disable %s: %w", name, err)
		}
	case exists(disabled):
		if err := os.Rename(disabled, enabled); err != nil {
			return fmt.Errorf("failed to enable %s: %w", name, err)
		}
	}
	return nil
}

// Delete removes both forms of name. Missing files are not an error.
func (d *Directory) Delete(name string) error {
	var errs []error
	for _, path := range []string{d.EnabledPath(name), d.DisabledPath(name)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// InstallPath resolves an index local_path (e.g. "foo.js") to the file that
// is installed for it: the enabled path if present, else the disabled path.
// ok is false when neither exists or localPath is not a plain file name.
func (d *Directory) InstallPath(localPath string) (string, bool) {
	if CheckLocalPath(localPath) != nil {
		return "", false
	}
	enabled := filepath.Join(d.root, localPath)
	if exists(enabled) {
		return enabled, true
	}
	disabled := enabled + disabledSuffix
	if exists(disabled) {
		return disabled, true
	}
	return "", false
}

// Write stores a downloaded plugin at its enabled path and removes a stale
// disabled copy so both forms never coexist. It returns the written path.
// localPath must be a plain file name.
func (d *Directory) Write(localPath string, data []byte) (string, error) {
	if err := CheckLocalPath(localPath); err != nil {
		return "", err
	}
	path := filepath.Join(d.root, localPath)
	if err := config.WriteFileAtomic(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write plugin %s: %w", localPath, err)
	}
	if err := os.Remove(path + disabledSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		d.logger.Warn("failed to remove disabled copy", zap.String("path", path+disabledSuffix), zap.Error(err))
	}
	return path, nil
}

// Installed lists every plugin with its state and version.
func (d *Directory) Installed() []Installed {
	names := d.List()
	out := make([]Installed, 0, len(names))
	for _, name := range names {
		inst := Installed{Name: name, Enabled: d.IsEnabled(name)}
		if inst.Enabled {
			inst.Path = d.EnabledPath(name)
		} else if exists(d.DisabledPath(name)) {
			inst.Path = d.DisabledPath(name)
		} else {
			inst.Path = filepath.Join(d.root, name+disabledSuffix)
		}
		inst.Version = ReadVersion(inst.Path)
		out = append(out, inst)
	}
	return out
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
