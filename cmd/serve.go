package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/labrun/internal/server"
	"github.com/Norgate-AV/labrun/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the lab API for browser editors",
	Long: `Serve the lab HTTP and WebSocket API.

All clients share one dispatcher, so requests from every editor are queued
together and share one result cache.`,
	Args:         cobra.NoArgs,
	RunE:         runServe,
	SilenceUsage: true,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, args)
	if err != nil {
		return err
	}

	snippets, err := store.Open(a.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open snippet store: %w", err)
	}
	defer snippets.Close()

	d := a.dispatcher()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initial probe, as the job only fires after its first interval
	go d.Probe(ctx)

	srv := server.New(d, snippets, server.Options{
		Addr:          a.cfg.Addr,
		ProbeSchedule: a.cfg.ProbeSchedule,
		Logger:        a.logger,
	})

	return srv.Run(ctx)
}
