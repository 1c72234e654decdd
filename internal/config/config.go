package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Viper keys for tool options. Every key can also be set through the
// environment with the SHELLCONF_ prefix, e.g. SHELLCONF_DATA_DIR.
const (
	KeyDataDir      = "data_dir"
	KeySource       = "source"
	KeyShellVersion = "shell_version"
	KeyTimeout      = "timeout"
	KeyVerbose      = "verbose"
)

const envPrefix = "SHELLCONF"

// DefaultTimeout bounds a remote index fetch.
const DefaultTimeout = 10 * time.Second

// Options are the resolved tool options for one invocation.
type Options struct {
	DataDir      string        // shell data directory holding config.json and scripts/
	Source       string        // plugin source override; empty uses the settings document
	ShellVersion string        // version of the installed shell binary
	Timeout      time.Duration // remote fetch timeout
	Verbose      bool          // debug logging
}

// NewViper returns a viper instance with defaults, environment binding and
// the optional tool config file (~/.config/shellconf/config.json).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDataDir, DefaultDataDir())
	v.SetDefault(KeySource, "")
	v.SetDefault(KeyShellVersion, "")
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyVerbose, false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(ConfigPath())
	v.SetConfigType("json")
	// Ignore error if config file doesn't exist yet.
	_ = v.ReadInConfig()

	return v
}

// BindFlags binds cobra persistent flags to their viper keys. Flag names use
// dashes (data-dir) and map onto underscore keys (data_dir).
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range []string{KeyDataDir, KeySource, KeyShellVersion, KeyTimeout, KeyVerbose} {
		name := strings.ReplaceAll(key, "_", "-")
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// Resolve reads Options out of v.
func Resolve(v *viper.Viper) Options {
	opts := Options{
		DataDir:      v.GetString(KeyDataDir),
		Source:       v.GetString(KeySource),
		ShellVersion: v.GetString(KeyShellVersion),
		Timeout:      v.GetDuration(KeyTimeout),
		Verbose:      v.GetBool(KeyVerbose),
	}
	if opts.DataDir == "" {
		opts.DataDir = DefaultDataDir()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return opts
}

// Paths returns the path layout rooted at the resolved data directory.
func (o Options) Paths() Paths {
	return Paths{Root: o.DataDir}
}
