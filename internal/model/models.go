package model

import "time"

// SnapshotInfo describes one exported snapshot of a source.
type SnapshotInfo struct {
	ID        string    `json:"id"`         // UUID assigned at export time
	Source    string    `json:"source"`     // Source the snapshot was taken from
	CreatedAt time.Time `json:"created_at"` // Export time, UTC
	FileCount int       `json:"file_count"` // Number of files in the snapshot
}

// SnapshotFile is one logical file captured in a snapshot.
type SnapshotFile struct {
	Path       string `json:"path"`        // Synthetic path (dir/name.ext)
	Content    string `json:"content"`     // Full content
	Size       int64  `json:"size"`        // Byte length of Content
	ModifiedAt int64  `json:"modified_at"` // Epoch seconds
}

// Snapshot is the full export payload: a manifest plus every live file of
// the source at export time. Serialized as JSON, then encrypted before it
// reaches a vault.
type Snapshot struct {
	Info  SnapshotInfo   `json:"info"`
	Files []SnapshotFile `json:"files"`
}
