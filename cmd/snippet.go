package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"

	"github.com/Norgate-AV/labrun/internal/store"
)

var snippetCmd = &cobra.Command{
	Use:     "snippet",
	Aliases: []string{"snippets"},
	Short:   "Manage saved snippets",
}

var snippetSaveCmd = &cobra.Command{
	Use:          "save <file>",
	Short:        "Save a source file as a snippet",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		lang, _ := cmd.Flags().GetString("language")

		return withStore(cmd, args, func(s *store.Store, out io.Writer) error {
			return saveSnippet(s, out, args[0], name, lang)
		})
	},
}

var snippetListCmd = &cobra.Command{
	Use:          "list",
	Aliases:      []string{"ls"},
	Short:        "List saved snippets",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("since")

		since, err := parseSince(raw)
		if err != nil {
			return err
		}

		return withStore(cmd, args, func(s *store.Store, out io.Writer) error {
			return listSnippets(s, out, since)
		})
	},
}

var snippetShowCmd = &cobra.Command{
	Use:          "show <name>",
	Short:        "Print a saved snippet",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, nil, func(s *store.Store, out io.Writer) error {
			return showSnippet(s, out, args[0])
		})
	},
}

var snippetRmCmd = &cobra.Command{
	Use:          "rm <name>",
	Aliases:      []string{"delete"},
	Short:        "Delete a saved snippet",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, nil, func(s *store.Store, out io.Writer) error {
			if err := s.Delete(args[0]); err != nil {
				return err
			}

			fmt.Fprintf(out, "Deleted %s\n", args[0])
			return nil
		})
	},
}

func init() {
	snippetSaveCmd.Flags().StringP("name", "n", "", "Snippet name (default: file name)")
	snippetSaveCmd.Flags().StringP("language", "l", "", "Language (default: from file extension)")
	snippetListCmd.Flags().String("since", "", "Only snippets updated at or after this date (e.g., 2026-03-01, \"Mar 1 2026 10:00\")")

	snippetCmd.AddCommand(snippetSaveCmd)
	snippetCmd.AddCommand(snippetListCmd)
	snippetCmd.AddCommand(snippetShowCmd)
	snippetCmd.AddCommand(snippetRmCmd)
}

// withStore opens the snippet store from config for the duration of fn
func withStore(cmd *cobra.Command, args []string, fn func(*store.Store, io.Writer) error) error {
	a, err := setup(cmd, args)
	if err != nil {
		return err
	}

	s, err := store.Open(a.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open snippet store: %w", err)
	}
	defer s.Close()

	return fn(s, cmd.OutOrStdout())
}

func saveSnippet(s *store.Store, out io.Writer, file, name, lang string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}

	id, err := resolveLanguage(lang, file)
	if err != nil {
		return err
	}

	if name == "" {
		name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}

	snippet, err := s.Save(name, id, string(content))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Saved %s (%s, %d bytes)\n", snippet.Name, snippet.Language, len(snippet.Content))

	return nil
}

// parseSince accepts any date layout dateparse understands, in local time.
// An empty string means no filter.
func parseSince(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}

	t, err := dateparse.ParseLocal(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since date %q: %w", raw, err)
	}

	return t, nil
}

func listSnippets(s *store.Store, out io.Writer, since time.Time) error {
	all, err := s.List()
	if err != nil {
		return err
	}

	snippets := all[:0]
	for _, sn := range all {
		if !sn.UpdatedAt.Before(since) {
			snippets = append(snippets, sn)
		}
	}

	if len(snippets) == 0 {
		fmt.Fprintln(out, "No snippets saved")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLANGUAGE\tSIZE\tUPDATED")

	for _, sn := range snippets {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", sn.Name, sn.Language, len(sn.Content), sn.UpdatedAt.Local().Format(time.DateTime))
	}

	return w.Flush()
}

func showSnippet(s *store.Store, out io.Writer, name string) error {
	snippet, err := s.Get(name)
	if err != nil {
		return err
	}

	if snippet == nil {
		return fmt.Errorf("%w: %q", store.ErrNotFound, name)
	}

	fmt.Fprint(out, snippet.Content)
	if !strings.HasSuffix(snippet.Content, "\n") {
		fmt.Fprintln(out)
	}

	return nil
}
