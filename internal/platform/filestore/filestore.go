// Package filestore persists uploaded files on the local filesystem.
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

// Common errors
var (
	ErrEmptyFilename = errors.New("filename cannot be empty")
	ErrUnsafePath    = errors.New("path escapes the storage root")
)

// FileStore saves and removes uploaded files. Implementations return paths
// relative to their storage root; those paths are what gets persisted on
// records.
type FileStore interface {
	Save(src io.Reader, area, filename string) (string, error)
	Remove(relPath string) error
}

// LocalFileStore stores files under a root directory on local disk.
type LocalFileStore struct {
	root string
}

// NewLocalFileStore creates a LocalFileStore rooted at dir, creating the
// directory if needed.
func NewLocalFileStore(dir string) (*LocalFileStore, error) {
	if dir == "" {
		return nil, errors.New("storage root cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalFileStore{root: dir}, nil
}

// Save writes src under area with a random name, keeping the original file
// extension. It returns the file's path relative to the storage root.
func (s *LocalFileStore) Save(src io.Reader, area, filename string) (string, error) {
	if filename == "" {
		return "", ErrEmptyFilename
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	relPath := filepath.Join(area, uuid.New().String()+ext)

	absPath, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage area: %w", err)
	}

	dst, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(absPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(absPath)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return relPath, nil
}

// Remove deletes a previously saved file. A missing file is not an error so
// callers can remove unconditionally during cleanup.
func (s *LocalFileStore) Remove(relPath string) error {
	absPath, err := s.resolve(relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(absPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// resolve joins relPath onto the root and rejects traversal outside it.
func (s *LocalFileStore) resolve(relPath string) (string, error) {
	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve storage root: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(absRoot, relPath))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", ErrUnsafePath
	}
	return absPath, nil
}
