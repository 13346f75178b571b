package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"pathdb-go/internal/pathdb"
)

// MemoryVault is an in-memory implementation of the Vault interface.
// It stores all snapshots in memory, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryVault struct {
	name      string
	snapshots map[string][]byte // "source/id" -> blob
	mu        sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:      name,
		snapshots: make(map[string][]byte),
	}
}

// snapshotKey returns the map key for a source/id pair.
func snapshotKey(source, id string) string {
	return source + "/" + id
}

// PutSnapshot stores a snapshot blob. Storing the same source/id twice
// overwrites.
func (m *MemoryVault) PutSnapshot(source, id string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[snapshotKey(source, id)] = data
	return nil
}

// GetSnapshot retrieves a snapshot blob and writes it to w.
func (m *MemoryVault) GetSnapshot(source, id string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.snapshots[snapshotKey(source, id)]
	if !ok {
		return fmt.Errorf("snapshot not found: %s", snapshotKey(source, id))
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return nil
}

// HasSnapshot reports whether a snapshot exists.
func (m *MemoryVault) HasSnapshot(source, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.snapshots[snapshotKey(source, id)]
	return ok, nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

// Compile-time check that MemoryVault implements pathdb.Vault interface
var _ pathdb.Vault = (*MemoryVault)(nil)
