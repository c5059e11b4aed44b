package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/labrun/internal/dispatch"
)

var probeCmd = &cobra.Command{
	Use:          "probe",
	Short:        "Check that the remote compiler APIs are reachable",
	Args:         cobra.NoArgs,
	RunE:         runProbe,
	SilenceUsage: true,
}

func runProbe(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result := a.dispatcher().Probe(ctx)
	printProbe(cmd.OutOrStdout(), a.cfg.PrimaryURL, a.cfg.FallbackURL, result)

	if !result.Primary && !result.Fallback {
		fmt.Fprintln(cmd.OutOrStdout(), "\nNo API reachable; runs will use simulated execution.")
	}

	return nil
}

func printProbe(out io.Writer, primaryURL, fallbackURL string, result dispatch.ProbeResult) {
	fmt.Fprintf(out, "Primary:  %-4s %s\n", status(result.Primary), primaryURL)
	fmt.Fprintf(out, "Fallback: %-4s %s\n", status(result.Fallback), fallbackURL)
}

func status(ok bool) string {
	if ok {
		return "ok"
	}

	return "down"
}
