package pathdb

import (
	"io"
	"io/fs"
)

// Path represents a validated local filesystem path with cached metadata.
// Path objects are created by FilesystemManager.Resolve, which validates
// the path exists, resolves it to an absolute path, and caches stat info.
// Not to be confused with the store's synthetic file paths, which are plain
// strings.
type Path struct {
	absPath string
	isDir   bool
	info    fs.FileInfo
}

// NewPath creates a Path from its components.
// This is primarily for use by FilesystemManager implementations.
func NewPath(absPath string, isDir bool, info fs.FileInfo) *Path {
	return &Path{
		absPath: absPath,
		isDir:   isDir,
		info:    info,
	}
}

// String returns the absolute path as a string.
func (p *Path) String() string {
	return p.absPath
}

// IsDir returns true if this path points to a directory.
func (p *Path) IsDir() bool {
	return p.isDir
}

// Info returns the cached file info from when the path was resolved.
func (p *Path) Info() fs.FileInfo {
	return p.info
}

// FilesystemManager provides an interface for local filesystem operations
// used by the directory load and dump flows. It abstracts file access to
// enable testing without touching the real filesystem.
type FilesystemManager interface {
	// Resolve validates a raw path and returns a Path object.
	// It resolves the path to an absolute path, stats it, and validates
	// it's a regular file or directory (not a symlink, device, etc.).
	Resolve(rawPath string) (*Path, error)

	// Open opens a file for reading.
	Open(path *Path) (io.ReadCloser, error)

	// FindFiles discovers regular files under the given directory path.
	// When recursive is true, files in subdirectories are included.
	FindFiles(path *Path, recursive bool) ([]*Path, error)

	// IsIgnored reports whether the path matches the configured ignore
	// patterns, relative to the given root directory.
	IsIgnored(path *Path, rootDir string) (bool, error)

	// WriteFile writes contents to absPath, creating parent directories
	// as needed.
	WriteFile(absPath string, contents []byte) error
}
