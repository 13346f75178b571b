package tablestore

import (
	"errors"
	"testing"
	"time"

	"pathdb-go/internal/pathdb"
)

// newTestStore opens a migrated in-memory store.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		t.Fatalf("Migrate() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func insertRow(t *testing.T, s *SQLiteStore, source, path, content string) {
	t.Helper()
	err := s.Insert(pathdb.NewQuery("files"), pathdb.Row{
		"source":     source,
		"path":       path,
		"content":    content,
		"file_size":  len(content),
		"updated_at": time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		"deleted_at": nil,
	})
	if err != nil {
		t.Fatalf("Insert(%s) error = %v", path, err)
	}
}

func TestSQLiteStore_Migrations(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()

	// Fresh database reports out of date.
	if err := store.CheckMigrations(); err == nil {
		t.Error("CheckMigrations() on fresh database expected error")
	}

	if err := store.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if err := store.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() after Migrate() error = %v", err)
	}

	// Migrate is idempotent.
	if err := store.Migrate(); err != nil {
		t.Errorf("second Migrate() error = %v", err)
	}
}

func TestSQLiteStore_InsertAndSelect(t *testing.T) {
	s := newTestStore(t)

	insertRow(t, s, "host-a", "docs/a.md", "alpha")
	insertRow(t, s, "host-a", "docs/b.md", "beta")
	insertRow(t, s, "host-b", "docs/a.md", "other source")

	rows, err := s.Select(pathdb.NewQuery("files").Where("source", "host-a"))
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Select() returned %d rows, want 2", len(rows))
	}

	t.Run("projection restricts columns", func(t *testing.T) {
		rows, err := s.Select(pathdb.NewQuery("files").
			SetColumns("path").
			Where("source", "host-a"))
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		for _, row := range rows {
			if len(row) != 1 {
				t.Errorf("row has %d columns, want 1: %v", len(row), row)
			}
			if _, ok := row["path"]; !ok {
				t.Errorf("row missing path column: %v", row)
			}
		}
	})

	t.Run("byte columns come back as strings", func(t *testing.T) {
		row, err := s.SelectOne(pathdb.NewQuery("files").
			Where("source", "host-a").Where("path", "docs/a.md"))
		if err != nil {
			t.Fatalf("SelectOne() error = %v", err)
		}
		if _, ok := row["content"].(string); !ok {
			t.Errorf("content = %T, want string", row["content"])
		}
	})
}

func TestSQLiteStore_SelectOne(t *testing.T) {
	s := newTestStore(t)
	insertRow(t, s, "host-a", "docs/a.md", "alpha")

	t.Run("found", func(t *testing.T) {
		row, err := s.SelectOne(pathdb.NewQuery("files").Where("path", "docs/a.md"))
		if err != nil {
			t.Fatalf("SelectOne() error = %v", err)
		}
		if row == nil {
			t.Fatal("SelectOne() = nil for existing row")
		}
	})

	t.Run("absent returns nil, not error", func(t *testing.T) {
		row, err := s.SelectOne(pathdb.NewQuery("files").Where("path", "missing"))
		if err != nil {
			t.Fatalf("SelectOne() error = %v", err)
		}
		if row != nil {
			t.Errorf("SelectOne() = %v, want nil", row)
		}
	})
}

func TestSQLiteStore_Count(t *testing.T) {
	s := newTestStore(t)
	insertRow(t, s, "host-a", "docs/a.md", "alpha")
	insertRow(t, s, "host-a", "docs/b.md", "beta")

	n, err := s.Count(pathdb.NewQuery("files").Where("source", "host-a"))
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}

	n, err = s.Count(pathdb.NewQuery("files").Where("source", "nobody"))
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestSQLiteStore_InsertConflict(t *testing.T) {
	s := newTestStore(t)
	insertRow(t, s, "host-a", "docs/a.md", "alpha")

	// The files table has UNIQUE(source, path).
	err := s.Insert(pathdb.NewQuery("files"), pathdb.Row{
		"source":     "host-a",
		"path":       "docs/a.md",
		"content":    "duplicate",
		"file_size":  9,
		"updated_at": time.Now(),
		"deleted_at": nil,
	})
	if !errors.Is(err, pathdb.ErrConflict) {
		t.Errorf("Insert() error = %v, want ErrConflict", err)
	}

	// Same path under another source is fine.
	insertRow(t, s, "host-b", "docs/a.md", "no conflict")
}

func TestSQLiteStore_Update(t *testing.T) {
	s := newTestStore(t)
	insertRow(t, s, "host-a", "docs/a.md", "old")
	insertRow(t, s, "host-a", "docs/b.md", "keep")

	n, err := s.Update(
		pathdb.NewQuery("files").Where("source", "host-a").Where("path", "docs/a.md"),
		pathdb.Row{"content": "new"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Update() = %d rows, want 1", n)
	}

	row, err := s.SelectOne(pathdb.NewQuery("files").Where("path", "docs/a.md"))
	if err != nil {
		t.Fatalf("SelectOne() error = %v", err)
	}
	if row["content"] != "new" {
		t.Errorf("content = %v, want %q", row["content"], "new")
	}

	t.Run("no matching rows", func(t *testing.T) {
		n, err := s.Update(
			pathdb.NewQuery("files").Where("path", "missing"),
			pathdb.Row{"content": "x"})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if n != 0 {
			t.Errorf("Update() = %d rows, want 0", n)
		}
	})
}

func TestSQLiteStore_Delete(t *testing.T) {
	s := newTestStore(t)
	insertRow(t, s, "host-a", "docs/a.md", "alpha")
	insertRow(t, s, "host-a", "docs/b.md", "beta")

	n, err := s.Delete(pathdb.NewQuery("files").Where("path", "docs/a.md"))
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Delete() = %d rows, want 1", n)
	}

	remaining, err := s.Count(pathdb.NewQuery("files"))
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if remaining != 1 {
		t.Errorf("Count() after delete = %d, want 1", remaining)
	}

	t.Run("no matching rows", func(t *testing.T) {
		n, err := s.Delete(pathdb.NewQuery("files").Where("path", "missing"))
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if n != 0 {
			t.Errorf("Delete() = %d rows, want 0", n)
		}
	})
}

func TestSQLiteStore_NullHandling(t *testing.T) {
	s := newTestStore(t)
	insertRow(t, s, "host-a", "docs/live.md", "here")

	// Soft delete one row by setting deleted_at.
	insertRow(t, s, "host-a", "docs/gone.md", "trashed")
	if _, err := s.Update(
		pathdb.NewQuery("files").Where("path", "docs/gone.md"),
		pathdb.Row{"deleted_at": time.Now()}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	live, err := s.Count(pathdb.NewQuery("files").WhereNull("deleted_at"))
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if live != 1 {
		t.Errorf("live count = %d, want 1", live)
	}

	trashed, err := s.Count(pathdb.NewQuery("files").WhereNotNull("deleted_at"))
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if trashed != 1 {
		t.Errorf("trashed count = %d, want 1", trashed)
	}
}
