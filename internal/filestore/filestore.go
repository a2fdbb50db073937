package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUnsupportedType is returned when an upload is not an SMS backup export
	ErrUnsupportedType = errors.New("unsupported backup file type")
	// ErrInvalidName is returned for stored names that do not refer to a saved backup
	ErrInvalidName = errors.New("invalid backup name")
)

// allowedExt lists the backup formats the importer can read
var allowedExt = map[string]bool{".xml": true}

// Store keeps uploaded SMS backup files on local disk until an import job
// has consumed them.
type Store struct {
	basePath string
}

// New creates a backup store rooted at basePath
func New(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// Save writes an uploaded backup and returns the stored name, a random UUID
// plus the original extension.
func (s *Store) Save(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	name := uuid.NewString() + ext
	fullPath := filepath.Join(s.basePath, name)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("close backup: %w", err)
	}
	return name, nil
}

// Path resolves a stored name to its filesystem path
func (s *Store) Path(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, name), nil
}

// Delete removes a stored backup. Missing files are not an error.
func (s *Store) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete backup: %w", err)
	}
	return nil
}

// validName accepts only names produced by Save
func validName(name string) error {
	ext := filepath.Ext(name)
	if !allowedExt[ext] {
		return ErrInvalidName
	}
	if _, err := uuid.Parse(strings.TrimSuffix(name, ext)); err != nil {
		return ErrInvalidName
	}
	return nil
}
