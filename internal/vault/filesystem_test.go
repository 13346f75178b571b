package vault

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFileSystemVault(t *testing.T) {
	t.Run("creates root directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		root := filepath.Join(tmpDir, "vault")

		v, err := NewFileSystemVault("test", root)
		if err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}

		if _, err := os.Stat(root); err != nil {
			t.Errorf("root directory not created: %v", err)
		}

		if v.name != "test" {
			t.Errorf("name = %q, want %q", v.name, "test")
		}
	})

	t.Run("works with existing directory", func(t *testing.T) {
		tmpDir := t.TempDir()

		_, err := NewFileSystemVault("test", tmpDir)
		if err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}
	})
}

func TestFileSystemVault_PutSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		id      string
		data    string
		size    int64
		wantErr bool
	}{
		{
			name:    "store snapshot successfully",
			source:  "host-a",
			id:      "snap-1",
			data:    "hello world",
			size:    11,
			wantErr: false,
		},
		{
			name:    "size mismatch",
			source:  "host-a",
			id:      "snap-2",
			data:    "hello",
			size:    100,
			wantErr: true,
		},
		{
			name:    "empty snapshot",
			source:  "host-a",
			id:      "snap-empty",
			data:    "",
			size:    0,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewFileSystemVault("test", t.TempDir())
			if err != nil {
				t.Fatalf("NewFileSystemVault() error = %v", err)
			}

			err = v.PutSnapshot(tt.source, tt.id, strings.NewReader(tt.data), tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("PutSnapshot() error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr {
				// Verify file exists with correct content
				data, err := os.ReadFile(v.snapshotPath(tt.source, tt.id))
				if err != nil {
					t.Fatalf("failed to read snapshot file: %v", err)
				}
				if string(data) != tt.data {
					t.Errorf("snapshot = %q, want %q", string(data), tt.data)
				}
			}
		})
	}
}

func TestFileSystemVault_PutSnapshot_Overwrites(t *testing.T) {
	v, err := NewFileSystemVault("test", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	// Store first version
	data1 := "version 1"
	if err := v.PutSnapshot("host-a", "snap-1", strings.NewReader(data1), int64(len(data1))); err != nil {
		t.Fatalf("first PutSnapshot() error = %v", err)
	}

	// Store second version - should overwrite
	data2 := "version 2"
	if err := v.PutSnapshot("host-a", "snap-1", strings.NewReader(data2), int64(len(data2))); err != nil {
		t.Fatalf("second PutSnapshot() error = %v", err)
	}

	var buf bytes.Buffer
	if err := v.GetSnapshot("host-a", "snap-1", &buf); err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if buf.String() != data2 {
		t.Errorf("snapshot = %q, want %q", buf.String(), data2)
	}
}

func TestFileSystemVault_GetSnapshot(t *testing.T) {
	v, err := NewFileSystemVault("test", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	t.Run("retrieve existing snapshot", func(t *testing.T) {
		data := "hello world"

		if err := v.PutSnapshot("host-a", "snap-1", strings.NewReader(data), int64(len(data))); err != nil {
			t.Fatalf("PutSnapshot() error = %v", err)
		}

		var buf bytes.Buffer
		if err := v.GetSnapshot("host-a", "snap-1", &buf); err != nil {
			t.Fatalf("GetSnapshot() error = %v", err)
		}

		if buf.String() != data {
			t.Errorf("snapshot = %q, want %q", buf.String(), data)
		}
	})

	t.Run("snapshot not found", func(t *testing.T) {
		var buf bytes.Buffer
		err := v.GetSnapshot("host-a", "nonexistent", &buf)
		if err == nil {
			t.Error("GetSnapshot() expected error for nonexistent snapshot")
		}
		if !strings.Contains(err.Error(), "snapshot not found") {
			t.Errorf("error = %v, want error containing 'snapshot not found'", err)
		}
	})
}

func TestFileSystemVault_HasSnapshot(t *testing.T) {
	v, err := NewFileSystemVault("test", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	data := "snapshot data"
	if err := v.PutSnapshot("host-a", "snap-1", strings.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}

	has, err := v.HasSnapshot("host-a", "snap-1")
	if err != nil {
		t.Fatalf("HasSnapshot() error = %v", err)
	}
	if !has {
		t.Error("HasSnapshot() = false for stored snapshot, want true")
	}

	has, err = v.HasSnapshot("host-b", "snap-1")
	if err != nil {
		t.Fatalf("HasSnapshot() error = %v", err)
	}
	if has {
		t.Error("HasSnapshot() = true for wrong source, want false")
	}
}

func TestFileSystemVault_ValidateSetup(t *testing.T) {
	t.Run("valid setup", func(t *testing.T) {
		v, err := NewFileSystemVault("test", t.TempDir())
		if err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}

		if err := v.ValidateSetup(); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})

	t.Run("missing root directory", func(t *testing.T) {
		v := &FileSystemVault{
			name: "test",
			root: "/nonexistent/path",
		}

		if err := v.ValidateSetup(); err == nil {
			t.Error("ValidateSetup() expected error for missing root")
		}
	})
}

func TestFileSystemVault_AtomicWrite(t *testing.T) {
	v, err := NewFileSystemVault("test", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	// Verify no temp files are left after successful write
	data := "hello world"
	if err := v.PutSnapshot("host-a", "snap-1", strings.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}

	// Check for leftover temp files
	entries, err := os.ReadDir(filepath.Join(v.root, "host-a"))
	if err != nil {
		t.Fatalf("failed to read source dir: %v", err)
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
}
