package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides (LABRUN_TIMEOUT=10s)
const EnvPrefix = "LABRUN"

// Loader handles configuration loading from various sources
type Loader struct {
	// globalDir returns the directory holding the global config file
	globalDir func() (string, error)
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		globalDir: func() (string, error) {
			dir, err := os.UserConfigDir()
			if err != nil {
				return "", err
			}

			return filepath.Join(dir, AppName), nil
		},
	}
}

// LoadForCommand loads configuration for a command. Sources, lowest
// precedence first: defaults, global config, local config, .env and
// LABRUN_* environment, flags.
//
// The local config is searched for from the directory of the first
// argument, or from the working directory when there are no arguments.
func (l *Loader) LoadForCommand(cmd *cobra.Command, args []string) (*Config, error) {
	l.setupViperDefaults()
	l.loadGlobalConfig()

	dir := l.startDir(args)
	if err := l.loadLocalConfig(cmd, dir); err != nil {
		return nil, err
	}

	l.loadEnv(dir)
	l.bindCommandFlags(cmd)

	return Load()
}

// setupViperDefaults sets up default values for viper
func (l *Loader) setupViperDefaults() {
	viper.SetDefault("primary_url", DefaultPrimaryURL)
	viper.SetDefault("fallback_url", DefaultFallbackURL)
	viper.SetDefault("timeout", DefaultTimeout)
	viper.SetDefault("probe_timeout", DefaultProbeTimeout)
	viper.SetDefault("cache_max_entries", DefaultCacheMaxEntries)
	viper.SetDefault("cache_max_age", DefaultCacheMaxAge)
	viper.SetDefault("simulate_delay", DefaultSimulateDelay)
	viper.SetDefault("addr", DefaultAddr)
	viper.SetDefault("probe_schedule", DefaultProbeSchedule)
	viper.SetDefault("log_level", DefaultLogLevel)
	viper.SetDefault("verbose", DefaultVerbose)
}

// loadGlobalConfig loads global configuration from the user config directory
func (l *Loader) loadGlobalConfig() {
	dir, err := l.globalDir()
	if err != nil {
		return
	}

	if path := FindGlobalConfig(dir); path != "" {
		viper.SetConfigFile(path)
		_ = viper.MergeInConfig()
	}
}

// loadLocalConfig merges the --config file if given, otherwise the nearest
// .labrun.* walking up from dir. Only an explicit --config that can't be
// read is an error.
func (l *Loader) loadLocalConfig(cmd *cobra.Command, dir string) error {
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil && flag.Value.String() != "" {
			viper.SetConfigFile(flag.Value.String())
			return viper.MergeInConfig()
		}
	}

	if dir == "" {
		return nil
	}

	if localPath := FindLocalConfig(dir); localPath != "" {
		viper.SetConfigFile(localPath)
		_ = viper.MergeInConfig()
	}

	return nil
}

// loadEnv loads the nearest .env file into the process environment, then
// enables LABRUN_* overrides. Variables already set are not replaced.
func (l *Loader) loadEnv(dir string) {
	if dir != "" {
		if path := FindEnvFile(dir); path != "" {
			_ = godotenv.Load(path)
		}
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()
}

// bindCommandFlags binds command flags to viper
func (l *Loader) bindCommandFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	for key, name := range map[string]string{
		"verbose":      "verbose",
		"log_level":    "log-level",
		"timeout":      "timeout",
		"primary_url":  "primary-url",
		"fallback_url": "fallback-url",
		"addr":         "addr",
		"data_dir":     "data-dir",
	} {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			_ = viper.BindPFlag(key, flag)
		}
	}
}

// startDir is where the local config and .env searches begin
func (l *Loader) startDir(args []string) string {
	if len(args) > 0 {
		if abs, err := filepath.Abs(args[0]); err == nil {
			if info, err := os.Stat(abs); err == nil && info.IsDir() {
				return abs
			}

			return filepath.Dir(abs)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	return cwd
}
