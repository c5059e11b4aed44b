package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/labrun/internal/language"
)

var languagesCmd = &cobra.Command{
	Use:          "languages",
	Short:        "List supported languages",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printLanguages(cmd.OutOrStdout())
	},
}

func printLanguages(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVERSION\tEXTENSION")

	for _, d := range language.All() {
		fmt.Fprintf(w, "%s\t%s\t%s\t.%s\n", d.ID, d.Name, d.Version, d.Extension)
	}

	return w.Flush()
}
