package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Manager roots all archive writes under a single directory and performs
// them atomically so an interrupted run never leaves a truncated file
// masquerading as a complete one.
type Manager struct {
	root string
}

// NewManager creates a storage manager rooted at the given directory,
// creating it if it does not exist.
func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &Manager{root: root}, nil
}

// Root returns the archive root directory.
func (m *Manager) Root() string {
	return m.root
}

// Path resolves a relative archive path to its absolute location on disk.
func (m *Manager) Path(rel string) string {
	return filepath.Join(m.root, filepath.FromSlash(rel))
}

// Exists reports whether a file already exists at the relative path.
func (m *Manager) Exists(rel string) bool {
	info, err := os.Stat(m.Path(rel))
	return err == nil && !info.IsDir()
}

// Save writes the reader's contents to the relative path, creating parent
// directories as needed. The data lands in a temporary file first and is
// renamed into place, so readers never observe a partial write.
func (m *Manager) Save(rel string, r io.Reader) error {
	target := m.Path(rel)

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}

	tempFile := target + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close %s: %w", rel, closeErr)
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// SaveBytes writes a byte slice to the relative path atomically.
func (m *Manager) SaveBytes(rel string, data []byte) error {
	return m.Save(rel, bytes.NewReader(data))
}
