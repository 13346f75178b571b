package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pathdb-go/internal/pathdb"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
}

// MockFilesystemManager is an in-memory filesystem for testing.
// Paths added to it must be absolute.
type MockFilesystemManager struct {
	files map[string]*MockFile

	// Ignored lists relative paths (from the walk root) that IsIgnored
	// reports as ignored.
	Ignored map[string]bool
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files:   make(map[string]*MockFile),
		Ignored: make(map[string]bool),
	}
}

// AddFile adds a file to the mock filesystem.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.files[path] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     time.Now(),
	}
}

// AddDirectory adds a directory to the mock filesystem.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.files[path] = &MockFile{
		Permissions: 0755,
		ModTime:     time.Now(),
		IsDirectory: true,
	}
}

// WrittenFile returns the content written to path via WriteFile, if any.
func (m *MockFilesystemManager) WrittenFile(path string) ([]byte, bool) {
	f, ok := m.files[path]
	if !ok || f.IsDirectory {
		return nil, false
	}
	return f.Content, true
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*pathdb.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, err
	}

	file, ok := m.files[absPath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", absPath)
	}

	info := &mockFileInfo{
		name:    filepath.Base(absPath),
		size:    int64(len(file.Content)),
		mode:    file.Permissions,
		modTime: file.ModTime,
		isDir:   file.IsDirectory,
	}

	return pathdb.NewPath(absPath, file.IsDirectory, info), nil
}

func (m *MockFilesystemManager) Open(path *pathdb.Path) (io.ReadCloser, error) {
	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path.String())
	}
	if file.IsDirectory {
		return nil, fmt.Errorf("cannot open directory: %s", path.String())
	}
	return io.NopCloser(bytes.NewReader(file.Content)), nil
}

func (m *MockFilesystemManager) FindFiles(path *pathdb.Path, recursive bool) ([]*pathdb.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	prefix := path.String() + string(filepath.Separator)

	var names []string
	for p, f := range m.files {
		if f.IsDirectory || !strings.HasPrefix(p, prefix) {
			continue
		}
		if !recursive && strings.ContainsRune(p[len(prefix):], filepath.Separator) {
			continue
		}
		names = append(names, p)
	}
	sort.Strings(names)

	paths := make([]*pathdb.Path, 0, len(names))
	for _, p := range names {
		resolved, err := m.Resolve(p)
		if err != nil {
			return nil, err
		}
		paths = append(paths, resolved)
	}
	return paths, nil
}

func (m *MockFilesystemManager) IsIgnored(path *pathdb.Path, rootDir string) (bool, error) {
	rel, err := filepath.Rel(rootDir, path.String())
	if err != nil {
		return false, err
	}
	return m.Ignored[rel], nil
}

func (m *MockFilesystemManager) WriteFile(absPath string, contents []byte) error {
	m.AddFile(absPath, contents)
	return nil
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

// Compile-time check
var _ pathdb.FilesystemManager = (*MockFilesystemManager)(nil)
