package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/labrun/internal/language"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	assert.FileExists(t, filepath.Join(dir, DBFile))
}

func TestOpen_EmptyDir(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestStore_SaveAndGet(t *testing.T) {
	s := openTestStore(t)
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	// Miss initially
	snippet, err := s.Get("hello")
	require.NoError(t, err)
	assert.Nil(t, snippet, "Should be nil before saving")

	saved, err := s.Save("hello", language.Python, "print('hi')")
	require.NoError(t, err)
	assert.Equal(t, fixed, saved.UpdatedAt)

	snippet, err = s.Get("hello")
	require.NoError(t, err)
	require.NotNil(t, snippet)

	assert.Equal(t, "hello", snippet.Name)
	assert.Equal(t, language.Python, snippet.Language)
	assert.Equal(t, "print('hi')", snippet.Content)
	assert.True(t, fixed.Equal(snippet.UpdatedAt))
}

func TestStore_SaveOverwrites(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Save("main", language.C, "v1")
	require.NoError(t, err)
	_, err = s.Save("main", language.Cpp, "v2")
	require.NoError(t, err)

	snippet, err := s.Get("main")
	require.NoError(t, err)
	assert.Equal(t, "v2", snippet.Content)
	assert.Equal(t, language.Cpp, snippet.Language)

	all, err := s.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_SaveRejects(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		name    string
		snippet string
		lang    language.ID
		wantErr error
	}{
		{"empty name", "", language.Go, ErrInvalidName},
		{"blank name", "   ", language.Go, ErrInvalidName},
		{"path separator", "../etc/passwd", language.Go, ErrInvalidName},
		{"unsupported language", "prog", "cobol", language.ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(tt.snippet, tt.lang, "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestStore_List(t *testing.T) {
	s := openTestStore(t)

	empty, err := s.List()
	require.NoError(t, err)
	assert.NotNil(t, empty, "Empty list should not be nil")
	assert.Empty(t, empty)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := s.Save(name, language.Ruby, "puts 1")
		require.NoError(t, err)
	}

	all, err := s.List()
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "mid", all[1].Name)
	assert.Equal(t, "zeta", all[2].Name)
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Save("gone", language.PHP, "<?php")
	require.NoError(t, err)

	require.NoError(t, s.Delete("gone"))

	snippet, err := s.Get("gone")
	require.NoError(t, err)
	assert.Nil(t, snippet)

	err = s.Delete("gone")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	_, err = s.Save("kept", language.Java, "class Main {}")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	snippet, err := reopened.Get("kept")
	require.NoError(t, err)
	require.NotNil(t, snippet)
	assert.Equal(t, "class Main {}", snippet.Content)
}
