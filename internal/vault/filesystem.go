package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"pathdb-go/internal/pathdb"
)

// FileSystemVault is a filesystem-based implementation of the Vault
// interface. Snapshots are stored one file per snapshot:
//
//	<root>/
//	  <source>/
//	    <id>.snap
type FileSystemVault struct {
	name string
	root string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault root: %w", err)
	}

	return &FileSystemVault{name: name, root: root}, nil
}

// snapshotPath returns the on-disk location of a snapshot.
func (v *FileSystemVault) snapshotPath(source, id string) string {
	return filepath.Join(v.root, source, id+".snap")
}

// PutSnapshot stores a snapshot blob. Storing the same source/id twice
// overwrites.
func (v *FileSystemVault) PutSnapshot(source, id string, r io.Reader, size int64) error {
	destPath := v.snapshotPath(source, id)
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create source directory: %w", err)
	}
	return v.writeFile(destPath, r, size)
}

// GetSnapshot retrieves a snapshot blob and writes it to w.
func (v *FileSystemVault) GetSnapshot(source, id string, w io.Writer) error {
	srcPath := v.snapshotPath(source, id)

	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("snapshot not found: %s/%s", source, id)
		}
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	return nil
}

// HasSnapshot reports whether a snapshot exists.
func (v *FileSystemVault) HasSnapshot(source, id string) (bool, error) {
	_, err := os.Stat(v.snapshotPath(source, id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat snapshot: %w", err)
	}
	return true, nil
}

// ValidateSetup verifies that the vault root is accessible.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}
	return nil
}

// writeFile writes data from r to the specified path using atomic write (temp file + rename).
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	// Create temp file in the same directory to ensure atomic rename works
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on failure
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemVault implements pathdb.Vault interface
var _ pathdb.Vault = (*FileSystemVault)(nil)
