package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"pathdb-go/internal/pathdb"
)

// OSFilesystemManager is the real filesystem implementation of FilesystemManager.
// It performs actual filesystem operations using the os package.
type OSFilesystemManager struct {
	configPatterns []string

	// matchers caches per-root ignore matchers so the ignore file is
	// parsed once per directory walk.
	matchers map[string]*IgnoreMatcher
}

// NewOSFilesystemManager creates a new filesystem manager that operates on
// the real filesystem. configPatterns are ignore patterns from config,
// applied in addition to any per-directory ignore file.
func NewOSFilesystemManager(configPatterns []string) *OSFilesystemManager {
	return &OSFilesystemManager{
		configPatterns: configPatterns,
		matchers:       make(map[string]*IgnoreMatcher),
	}
}

// Resolve validates a raw path and returns a Path object.
func (m *OSFilesystemManager) Resolve(rawPath string) (*pathdb.Path, error) {
	// Convert to absolute path
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	// Stat the path
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	// Check for special file types we don't support
	mode := info.Mode()
	if mode&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("symlinks not supported: %s", absPath)
	}
	if mode&os.ModeDevice != 0 {
		return nil, fmt.Errorf("device files not supported: %s", absPath)
	}
	if mode&os.ModeNamedPipe != 0 {
		return nil, fmt.Errorf("named pipes not supported: %s", absPath)
	}
	if mode&os.ModeSocket != 0 {
		return nil, fmt.Errorf("sockets not supported: %s", absPath)
	}

	return pathdb.NewPath(absPath, info.IsDir(), info), nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path *pathdb.Path) (io.ReadCloser, error) {
	if path.IsDir() {
		return nil, fmt.Errorf("cannot open directory as file: %s", path.String())
	}
	return os.Open(path.String())
}

// FindFiles discovers regular files under the given directory path.
func (m *OSFilesystemManager) FindFiles(path *pathdb.Path, recursive bool) ([]*pathdb.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	var paths []*pathdb.Path

	if recursive {
		err := filepath.WalkDir(path.String(), func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", p, err)
			}
			paths = append(paths, pathdb.NewPath(p, false, info))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking directory: %w", err)
		}
	} else {
		entries, err := os.ReadDir(path.String())
		if err != nil {
			return nil, fmt.Errorf("reading directory: %w", err)
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
			}
			fullPath := filepath.Join(path.String(), entry.Name())
			paths = append(paths, pathdb.NewPath(fullPath, false, info))
		}
	}

	return paths, nil
}

// IsIgnored reports whether the path matches the configured ignore patterns
// or the ignore file found at the root directory.
func (m *OSFilesystemManager) IsIgnored(path *pathdb.Path, rootDir string) (bool, error) {
	matcher, err := m.matcherFor(rootDir)
	if err != nil {
		return false, err
	}

	rel, err := filepath.Rel(rootDir, path.String())
	if err != nil {
		return false, fmt.Errorf("relativizing %s: %w", path.String(), err)
	}

	return matcher.Match(rel), nil
}

// WriteFile writes contents to absPath, creating parent directories as needed.
func (m *OSFilesystemManager) WriteFile(absPath string, contents []byte) error {
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}
	if err := os.WriteFile(absPath, contents, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// matcherFor builds (and caches) the ignore matcher for a directory root.
func (m *OSFilesystemManager) matcherFor(rootDir string) (*IgnoreMatcher, error) {
	if matcher, ok := m.matchers[rootDir]; ok {
		return matcher, nil
	}

	filePatterns, err := ParseIgnoreFile(filepath.Join(rootDir, IgnoreFileName))
	if err != nil {
		return nil, err
	}

	var raw []string
	raw = append(raw, defaultIgnorePatterns...)
	raw = append(raw, m.configPatterns...)
	raw = append(raw, filePatterns...)

	matcher := NewIgnoreMatcher(raw)
	m.matchers[rootDir] = matcher
	return matcher, nil
}

// Compile-time check that OSFilesystemManager implements pathdb.FilesystemManager interface
var _ pathdb.FilesystemManager = (*OSFilesystemManager)(nil)
