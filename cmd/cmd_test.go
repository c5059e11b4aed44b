package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/labrun/internal/dispatch"
	"github.com/Norgate-AV/labrun/internal/store"
)

func TestPrintLanguages(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printLanguages(&out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 11, "Header plus one line per language")

	assert.Contains(t, lines[0], "ID")
	assert.Contains(t, out.String(), "csharp")
	assert.Contains(t, out.String(), ".cs")
	assert.Contains(t, out.String(), "3.10.0")
}

func TestPrintProbe(t *testing.T) {
	var out bytes.Buffer
	printProbe(&out, "https://primary.example", "https://fallback.example", dispatch.ProbeResult{Primary: true})

	assert.Contains(t, out.String(), "Primary:  ok   https://primary.example")
	assert.Contains(t, out.String(), "Fallback: down https://fallback.example")
}

func TestSnippetHelpers(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	var out bytes.Buffer

	// Empty list
	require.NoError(t, listSnippets(s, &out, time.Time{}))
	assert.Contains(t, out.String(), "No snippets saved")

	// Save with name from file
	file := writeSource(t, "hello.py", "print('hello')")
	out.Reset()
	require.NoError(t, saveSnippet(s, &out, file, "", ""))
	assert.Contains(t, out.String(), "Saved hello (python")

	// Save with explicit name and language
	other := writeSource(t, "prog.txt", "puts 1\n")
	out.Reset()
	require.NoError(t, saveSnippet(s, &out, other, "greeter", "rb"))
	assert.Contains(t, out.String(), "Saved greeter (ruby")

	// List
	out.Reset()
	require.NoError(t, listSnippets(s, &out, time.Time{}))
	assert.Contains(t, out.String(), "greeter")
	assert.Contains(t, out.String(), "hello")

	// Filter by update time
	out.Reset()
	require.NoError(t, listSnippets(s, &out, time.Now().Add(time.Hour)))
	assert.Contains(t, out.String(), "No snippets saved")

	// Show adds a trailing newline when missing
	out.Reset()
	require.NoError(t, showSnippet(s, &out, "hello"))
	assert.Equal(t, "print('hello')\n", out.String())

	out.Reset()
	require.NoError(t, showSnippet(s, &out, "greeter"))
	assert.Equal(t, "puts 1\n", out.String())

	// Missing
	err = showSnippet(s, &out, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Unknown extension without --language
	bad := writeSource(t, "notes.cob", "x")
	assert.Error(t, saveSnippet(s, &out, bad, "", ""))
}

func TestRootCommand_Run(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":"Hello from primary\n"}`))
	}))
	defer primary.Close()

	dir := t.TempDir()
	file := filepath.Join(dir, "main.py")
	require.NoError(t, os.WriteFile(file, []byte("print('Hello from primary')"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"run", file,
		"--primary-url", primary.URL,
		"--data-dir", filepath.Join(dir, "data"),
	})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "Hello from primary\n", out.String())
}

func TestParseSince(t *testing.T) {
	zero, err := parseSince("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	got, err := parseSince("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local), got)

	_, err = parseSince("not a date at all")
	assert.ErrorContains(t, err, "invalid --since date")
}
