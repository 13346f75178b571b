package pathdb

import "io"

// Vault provides an interface for snapshot storage backends. Snapshots are
// opaque (usually encrypted) blobs addressed by source and snapshot ID.
// All operations stream through io.Reader/io.Writer so large snapshots
// never need to fit in memory.
type Vault interface {
	// PutSnapshot stores a snapshot blob. size is the number of bytes that
	// will be read from r. Storing the same source/id twice overwrites.
	PutSnapshot(source, id string, r io.Reader, size int64) error

	// GetSnapshot retrieves a snapshot blob and writes it to w.
	GetSnapshot(source, id string, w io.Writer) error

	// HasSnapshot reports whether a snapshot exists.
	HasSnapshot(source, id string) (bool, error)

	// ValidateSetup verifies that the vault is accessible and properly
	// configured.
	ValidateSetup() error
}
