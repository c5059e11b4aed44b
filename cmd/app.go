package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Norgate-AV/labrun/internal/cache"
	"github.com/Norgate-AV/labrun/internal/compiler"
	"github.com/Norgate-AV/labrun/internal/config"
	"github.com/Norgate-AV/labrun/internal/dispatch"
	"github.com/Norgate-AV/labrun/internal/simulated"
)

// app holds what every subcommand needs
type app struct {
	cfg    *config.Config
	logger *log.Logger
}

// setup loads configuration and builds the logger. Logs go to stderr so
// program output on stdout stays clean.
func setup(cmd *cobra.Command, args []string) (*app, error) {
	cfg, err := config.NewLoader().LoadForCommand(cmd, args)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: newLogger(cfg),
	}, nil
}

func newLogger(cfg *config.Config) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           cfg.Level(),
		ReportTimestamp: true,
		Prefix:          config.AppName,
	})
}

// dispatcher wires the remote clients, cache and simulator from config
func (a *app) dispatcher() *dispatch.Dispatcher {
	return newDispatcher(a.cfg, a.logger)
}

func newDispatcher(cfg *config.Config, logger *log.Logger) *dispatch.Dispatcher {
	return dispatch.New(dispatch.Config{
		Primary:      compiler.NewPrimary(cfg.PrimaryURL, cfg.Timeout, nil),
		Fallback:     compiler.NewFallback(cfg.FallbackURL, cfg.Timeout, nil),
		Simulator:    simulated.New(cfg.SimulateDelay),
		Cache:        cache.New(cfg.CacheMaxEntries, cfg.CacheMaxAge),
		Logger:       logger,
		ProbeTimeout: cfg.ProbeTimeout,
	})
}
