package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/labrun/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "labrun",
	Short: "Programming lab code runner",
	Long: `Run source files through the programming lab's remote compilers.

Code goes to the primary compiler API first, then the fallback API, and
finally to a simulated executor when neither can be reached. Results are
cached for a few minutes.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (%s) %s", version.Version, version.Commit, version.BuildTime)
	rootCmd.PersistentFlags().String("config", "", "Config file (default: nearest .labrun.{yml,yaml,json,toml})")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("primary-url", "", "Primary compiler API URL")
	rootCmd.PersistentFlags().String("fallback-url", "", "Fallback compiler API base URL")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Timeout for each remote attempt (e.g., 30s)")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory holding the snippet database")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snippetCmd)
}
