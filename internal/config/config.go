package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/Norgate-AV/labrun/internal/cache"
	"github.com/Norgate-AV/labrun/internal/compiler"
	"github.com/Norgate-AV/labrun/internal/dispatch"
	"github.com/Norgate-AV/labrun/internal/simulated"
)

// Default configuration values
const (
	DefaultPrimaryURL      = compiler.DefaultPrimaryURL
	DefaultFallbackURL     = compiler.DefaultFallbackURL
	DefaultTimeout         = compiler.DefaultTimeout
	DefaultProbeTimeout    = dispatch.DefaultProbeTimeout
	DefaultCacheMaxEntries = cache.DefaultMaxEntries
	DefaultCacheMaxAge     = cache.DefaultMaxAge
	DefaultSimulateDelay   = simulated.DefaultDelay
	DefaultAddr            = ":8080"
	DefaultProbeSchedule   = "@every 5m"
	DefaultLogLevel        = "info"
	DefaultVerbose         = false

	// AppName names the global config and data directories
	AppName = "labrun"
)

// Holds the configuration options for labrun
type Config struct {
	// Primary code-execution API
	PrimaryURL string

	// Base URL of the fallback API
	FallbackURL string

	// Per-attempt timeout for remote execution
	Timeout time.Duration

	// Per-endpoint timeout for connectivity probes
	ProbeTimeout time.Duration

	// Result cache limits
	CacheMaxEntries int
	CacheMaxAge     time.Duration

	// Artificial delay of simulated runs
	SimulateDelay time.Duration

	// Directory holding the snippet database
	DataDir string

	// Listen address of the lab server
	Addr string

	// Cron schedule of the server's probe and prune job; empty disables it
	ProbeSchedule string

	// charmbracelet/log level name
	LogLevel string

	// Enable verbose output
	Verbose bool
}

func Load() (*Config, error) {
	cfg := &Config{
		PrimaryURL:      viper.GetString("primary_url"),
		FallbackURL:     viper.GetString("fallback_url"),
		Timeout:         viper.GetDuration("timeout"),
		ProbeTimeout:    viper.GetDuration("probe_timeout"),
		CacheMaxEntries: viper.GetInt("cache_max_entries"),
		CacheMaxAge:     viper.GetDuration("cache_max_age"),
		SimulateDelay:   viper.GetDuration("simulate_delay"),
		DataDir:         viper.GetString("data_dir"),
		Addr:            viper.GetString("addr"),
		ProbeSchedule:   viper.GetString("probe_schedule"),
		LogLevel:        viper.GetString("log_level"),
		Verbose:         viper.GetBool("verbose"),
	}

	// Apply defaults if not set
	if cfg.PrimaryURL == "" {
		cfg.PrimaryURL = DefaultPrimaryURL
	}

	if cfg.FallbackURL == "" {
		cfg.FallbackURL = DefaultFallbackURL
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}

	if cfg.CacheMaxEntries == 0 {
		cfg.CacheMaxEntries = DefaultCacheMaxEntries
	}

	if cfg.CacheMaxAge == 0 {
		cfg.CacheMaxAge = DefaultCacheMaxAge
	}

	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir()
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultDataDir is <UserConfigDir>/labrun, or .labrun when the user config
// directory is unknown
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppName)
	}

	return "." + AppName
}

func (c *Config) Validate() error {
	if err := validateURL("primary_url", c.PrimaryURL); err != nil {
		return err
	}

	if err := validateURL("fallback_url", c.FallbackURL); err != nil {
		return err
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout: %s", c.Timeout)
	}

	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("invalid probe timeout: %s", c.ProbeTimeout)
	}

	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("invalid cache size: %d", c.CacheMaxEntries)
	}

	if c.CacheMaxAge <= 0 {
		return fmt.Errorf("invalid cache max age: %s", c.CacheMaxAge)
	}

	if c.SimulateDelay < 0 {
		return fmt.Errorf("invalid simulate delay: %s", c.SimulateDelay)
	}

	if c.ProbeSchedule != "" {
		if _, err := cron.ParseStandard(c.ProbeSchedule); err != nil {
			return fmt.Errorf("invalid probe schedule %q: %v", c.ProbeSchedule, err)
		}
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	// Resolve data directory
	if c.DataDir != "" {
		abs, err := filepath.Abs(c.DataDir)
		if err != nil {
			return fmt.Errorf("invalid data directory: %v", err)
		}

		c.DataDir = abs
	}

	return nil
}

// Level returns the effective log level; verbose forces debug
func (c *Config) Level() log.Level {
	if c.Verbose {
		return log.DebugLevel
	}

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}

	return level
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %v", key, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s: %q is not an http(s) URL", key, raw)
	}

	return nil
}
