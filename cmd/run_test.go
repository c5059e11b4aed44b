package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/labrun/internal/execution"
	"github.com/Norgate-AV/labrun/internal/language"
)

// mockExecutor implements executor for testing
type mockExecutor struct {
	result *execution.Result
	err    error

	gotLang  language.ID
	gotCode  string
	gotStdin string
	gotOpts  execution.Options
}

func (m *mockExecutor) Execute(_ context.Context, lang language.ID, code, stdin string, opts execution.Options) (*execution.Result, error) {
	m.gotLang = lang
	m.gotCode = code
	m.gotStdin = stdin
	m.gotOpts = opts

	return m.result, m.err
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		file     string
		want     language.ID
		wantErr  bool
	}{
		{"from extension", "", "main.py", language.Python, false},
		{"cpp extension", "", "main.cpp", language.Cpp, false},
		{"explicit wins", "ruby", "main.py", language.Ruby, false},
		{"explicit alias", "C++", "prog.txt", language.Cpp, false},
		{"unknown extension", "", "main.cob", "", true},
		{"no extension", "", "Makefile", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveLanguage(tt.explicit, tt.file)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, language.ErrUnsupported))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunFile(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		content    string
		opts       runOptions
		result     *execution.Result
		execErr    error
		wantLang   language.ID
		wantOut    []string
		wantErr    error
		errContain string
	}{
		{
			name:     "prints output",
			file:     "main.py",
			content:  "print(1)",
			result:   &execution.Result{Success: true, Output: "1\n", Origin: execution.OriginPrimary},
			wantLang: language.Python,
			wantOut:  []string{"1\n"},
		},
		{
			name:     "marks simulated output",
			file:     "main.go",
			content:  "package main",
			result:   &execution.Result{Success: true, Output: "Hello, Go!", Origin: execution.OriginSimulated, Simulated: true},
			wantLang: language.Go,
			wantOut:  []string{"Hello, Go!\n", "[simulated]"},
		},
		{
			name:     "verbose shows origin",
			file:     "main.rb",
			content:  "puts 1",
			opts:     runOptions{Verbose: true},
			result:   &execution.Result{Success: true, Output: "1\n", Origin: execution.OriginFallback, ExecutionTime: "0.1"},
			wantLang: language.Ruby,
			wantOut:  []string{"Language: ruby", "Origin: fallback", "Time: 0.1", "Memory: -"},
		},
		{
			name:     "compile error fails",
			file:     "main.c",
			content:  "int main(){",
			result:   &execution.Result{Success: false, Output: "main.c:1: error", Origin: execution.OriginFallback},
			wantLang: language.C,
			wantOut:  []string{"main.c:1: error"},
			wantErr:  ErrProgramFailed,
		},
		{
			name:     "dispatcher error propagates",
			file:     "main.ts",
			content:  "let x",
			execErr:  context.DeadlineExceeded,
			wantLang: language.TypeScript,
			wantErr:  context.DeadlineExceeded,
		},
		{
			name:       "unknown extension",
			file:       "main.cob",
			content:    "x",
			errContain: "unsupported language",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSource(t, tt.file, tt.content)
			ex := &mockExecutor{result: tt.result, err: tt.execErr}

			opts := tt.opts
			opts.File = path
			opts.Input = "stdin"

			var out bytes.Buffer
			err := runFile(context.Background(), ex, opts, &out)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errContain != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContain)
				return
			default:
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantLang, ex.gotLang)
			assert.Equal(t, tt.content, ex.gotCode)
			assert.Equal(t, "stdin", ex.gotStdin)

			for _, want := range tt.wantOut {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestRunFile_JSON(t *testing.T) {
	path := writeSource(t, "main.js", "console.log(1)")
	ex := &mockExecutor{result: &execution.Result{
		Success:     true,
		Output:      "1\n",
		Language:    language.JavaScript,
		Origin:      execution.OriginPrimary,
		Fingerprint: "javascript-1-2",
	}}

	var out bytes.Buffer
	err := runFile(context.Background(), ex, runOptions{File: path, JSON: true, Options: execution.Options{Force: true}}, &out)
	require.NoError(t, err)

	var got execution.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, *ex.result, got)
	assert.True(t, ex.gotOpts.Force)
}

func TestRunFile_MissingFile(t *testing.T) {
	err := runFile(context.Background(), &mockExecutor{}, runOptions{File: filepath.Join(t.TempDir(), "nope.py")}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read source file")
}

func newRunFlagsCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("language", "", "")
	cmd.Flags().String("input", "", "")
	cmd.Flags().String("stdin-file", "", "")
	cmd.Flags().StringSlice("arg", nil, "")
	cmd.Flags().Bool("force", false, "")
	cmd.Flags().Bool("simulate", false, "")
	cmd.Flags().Bool("json", false, "")

	return cmd
}

func TestParseRunFlags(t *testing.T) {
	t.Run("stdin file is read", func(t *testing.T) {
		stdinFile := writeSource(t, "input.txt", "42\n")

		cmd := newRunFlagsCommand()

		require.NoError(t, cmd.Flags().Set("stdin-file", stdinFile))
		require.NoError(t, cmd.Flags().Set("arg", "a,b"))
		require.NoError(t, cmd.Flags().Set("simulate", "true"))

		opts, err := parseRunFlags(cmd, "main.py")
		require.NoError(t, err)

		assert.Equal(t, "main.py", opts.File)
		assert.Equal(t, "42\n", opts.Input)
		assert.Equal(t, []string{"a", "b"}, opts.Options.Args)
		assert.True(t, opts.Options.Simulate)
		assert.False(t, opts.Options.Force)
	})

	t.Run("input and stdin file conflict", func(t *testing.T) {
		cmd := newRunFlagsCommand()

		require.NoError(t, cmd.Flags().Set("input", "x"))
		require.NoError(t, cmd.Flags().Set("stdin-file", "y"))

		_, err := parseRunFlags(cmd, "main.py")
		assert.ErrorContains(t, err, "mutually exclusive")
	})
}
