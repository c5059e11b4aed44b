package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Norgate-AV/labrun/internal/execution"
	"github.com/Norgate-AV/labrun/internal/language"
)

// ErrProgramFailed is returned when the remote compiler reports a
// compile or runtime error
var ErrProgramFailed = errors.New("program failed")

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run a source file",
	Long: `Run a source file through the compiler chain.

The language is taken from --language or from the file extension.`,
	Args:         cobra.ExactArgs(1),
	RunE:         runRun,
	SilenceUsage: true,
}

func init() {
	runCmd.Flags().StringP("language", "l", "", "Language (default: from file extension)")
	runCmd.Flags().StringP("input", "i", "", "Text passed to the program on stdin")
	runCmd.Flags().String("stdin-file", "", "File passed to the program on stdin")
	runCmd.Flags().StringSliceP("arg", "a", nil, "Program argument (repeatable; fallback API only)")
	runCmd.Flags().Bool("force", false, "Skip the result cache")
	runCmd.Flags().Bool("simulate", false, "Use the simulated executor only")
	runCmd.Flags().Bool("json", false, "Print the full result as JSON")
}

// runOptions are the parsed run flags
type runOptions struct {
	File     string
	Language string
	Input    string
	Options  execution.Options
	JSON     bool
	Verbose  bool
}

// executor is the part of the dispatcher the run command uses
type executor interface {
	Execute(ctx context.Context, lang language.ID, code, stdin string, opts execution.Options) (*execution.Result, error)
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, args)
	if err != nil {
		return err
	}

	opts, err := parseRunFlags(cmd, args[0])
	if err != nil {
		return err
	}

	opts.Verbose = a.cfg.Verbose

	return runFile(cmd.Context(), a.dispatcher(), opts, cmd.OutOrStdout())
}

func parseRunFlags(cmd *cobra.Command, file string) (runOptions, error) {
	flags := cmd.Flags()

	lang, _ := flags.GetString("language")
	input, _ := flags.GetString("input")
	stdinFile, _ := flags.GetString("stdin-file")
	programArgs, _ := flags.GetStringSlice("arg")
	force, _ := flags.GetBool("force")
	simulate, _ := flags.GetBool("simulate")
	asJSON, _ := flags.GetBool("json")

	if stdinFile != "" {
		if input != "" {
			return runOptions{}, fmt.Errorf("--input and --stdin-file are mutually exclusive")
		}

		data, err := os.ReadFile(stdinFile)
		if err != nil {
			return runOptions{}, fmt.Errorf("failed to read stdin file: %w", err)
		}

		input = string(data)
	}

	return runOptions{
		File:     file,
		Language: lang,
		Input:    input,
		Options: execution.Options{
			Force:    force,
			Simulate: simulate,
			Args:     programArgs,
		},
		JSON: asJSON,
	}, nil
}

// resolveLanguage picks the explicit language if given, else the extension's
func resolveLanguage(explicit, file string) (language.ID, error) {
	if explicit != "" {
		return language.Normalize(explicit), nil
	}

	return language.FromFilename(file)
}

func runFile(ctx context.Context, ex executor, opts runOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	absFile, err := filepath.Abs(opts.File)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	code, err := os.ReadFile(absFile)
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}

	lang, err := resolveLanguage(opts.Language, absFile)
	if err != nil {
		return err
	}

	if opts.Verbose {
		fmt.Fprintf(out, "File: %s\nLanguage: %s\nForce: %t\nSimulate: %t\n\n", absFile, lang, opts.Options.Force, opts.Options.Simulate)
	}

	result, err := ex.Execute(ctx, lang, string(code), opts.Input, opts.Options)
	if err != nil {
		return err
	}

	if err := printResult(out, result, opts); err != nil {
		return err
	}

	if !result.Success {
		return ErrProgramFailed
	}

	return nil
}

func printResult(out io.Writer, result *execution.Result, opts runOptions) error {
	if opts.JSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}

		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	fmt.Fprint(out, result.Output)
	if len(result.Output) > 0 && result.Output[len(result.Output)-1] != '\n' {
		fmt.Fprintln(out)
	}

	if result.Simulated {
		fmt.Fprintln(out, "[simulated]")
	}

	if opts.Verbose {
		fmt.Fprintf(out, "\nOrigin: %s\nTime: %s\nMemory: %s\nFingerprint: %s\n",
			result.Origin, orDash(result.ExecutionTime), orDash(result.Memory), result.Fingerprint)
	}

	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
