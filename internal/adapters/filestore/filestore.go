// Package filestore persists each challenge's expected output file on
// disk, one flat newline-delimited file per challenge title.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidTitle marks a challenge title unusable as a file name.
	ErrInvalidTitle = errors.New("invalid challenge title")
	// ErrNotFound marks a missing expected output file.
	ErrNotFound = errors.New("expected output file not found")
)

// Store keeps expected output files under a single root directory.
type Store struct {
	root string
}

// New ensures root/challenges exists and returns a store over it.
func New(root string) (*Store, error) {
	dir := filepath.Join(root, "challenges")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &Store{root: dir}, nil
}

func (s *Store) path(title string) (string, error) {
	if title == "" || strings.ContainsAny(title, "/\\") || title == "." || title == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidTitle, title)
	}
	return filepath.Join(s.root, title+".tsv"), nil
}

// SaveExpected writes the expected output lines for a challenge,
// replacing any previous file.
func (s *Store) SaveExpected(title string, lines []string) error {
	path, err := s.path(title)
	if err != nil {
		return err
	}
	data := strings.Join(lines, "\n")
	if len(lines) > 0 {
		data += "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("write expected file for %q: %w", title, err)
	}
	return nil
}

// LoadExpected reads a challenge's expected output lines.
func (s *Store) LoadExpected(title string) ([]string, error) {
	path, err := s.path(title)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, title)
		}
		return nil, fmt.Errorf("read expected file for %q: %w", title, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n"), nil
}

// RemoveExpected deletes a challenge's expected output file. Removing a
// file that never existed is not an error.
func (s *Store) RemoveExpected(title string) error {
	path, err := s.path(title)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove expected file for %q: %w", title, err)
	}
	return nil
}
