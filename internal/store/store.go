// Package store persists named source snippets for the lab editors.
//
// Snippets are kept in a BoltDB file under the data directory, one
// JSON-encoded record per name in the "snippets" bucket.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.etcd.io/bbolt"

	"github.com/Norgate-AV/labrun/internal/language"
)

const (
	// DBFile is the database file name inside the data directory
	DBFile = "labrun.db"

	// bucketName is the BoltDB bucket name for snippets
	bucketName = "snippets"

	maxNameLength = 128
)

var (
	// ErrNotFound is returned when deleting a snippet that doesn't exist
	ErrNotFound = errors.New("snippet not found")

	// ErrInvalidName is returned for empty, overlong or path-like names
	ErrInvalidName = errors.New("invalid snippet name")
)

// Snippet is a saved source file
type Snippet struct {
	Name      string      `json:"name"`
	Language  language.ID `json:"language"`
	Content   string      `json:"content"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Store manages snippets using BoltDB
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens (creating if needed) the snippet database in dataDir
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, errors.New("data directory is required")
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFile)
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open snippet database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snippet bucket: %w", err)
	}

	return &Store{
		db:  db,
		now: time.Now,
	}, nil
}

// Close closes the snippet database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}

// ValidateName rejects names that can't be used as snippet keys
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case len(name) > maxNameLength:
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}

	return nil
}

// Save creates or replaces a snippet and returns the stored record
func (s *Store) Save(name string, lang language.ID, content string) (*Snippet, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	if _, err := language.Lookup(lang); err != nil {
		return nil, err
	}

	snippet := Snippet{
		Name:      name,
		Language:  lang,
		Content:   content,
		UpdatedAt: s.now().UTC(),
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		data, err := json.Marshal(snippet)
		if err != nil {
			return err
		}

		return b.Put([]byte(name), data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store snippet: %w", err)
	}

	return &snippet, nil
}

// Get retrieves a snippet by name
// Returns nil if it doesn't exist
func (s *Store) Get(name string) (*Snippet, error) {
	var snippet *Snippet

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		data := b.Get([]byte(name))
		if data == nil {
			return nil
		}

		snippet = &Snippet{}
		return json.Unmarshal(data, snippet)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read snippet: %w", err)
	}

	return snippet, nil
}

// List returns all snippets in key order, which is sorted by name
func (s *Store) List() ([]Snippet, error) {
	snippets := []Snippet{}

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		return b.ForEach(func(k, v []byte) error {
			var snippet Snippet
			if err := json.Unmarshal(v, &snippet); err != nil {
				return fmt.Errorf("snippet %q: %w", k, err)
			}

			snippets = append(snippets, snippet)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list snippets: %w", err)
	}

	return snippets, nil
}

// Delete removes a snippet, returning ErrNotFound if it doesn't exist
func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		if b.Get([]byte(name)) == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}

		return b.Delete([]byte(name))
	})
}
