package pathdb_test

import (
	"path/filepath"
	"strings"
	"testing"

	"pathdb-go/internal/pathdb"
	"pathdb-go/internal/testutil"
)

func newTestService(t *testing.T, source string) (*pathdb.Service, *testutil.MockFilesystemManager) {
	t.Helper()

	store := pathdb.NewPathStore(testutil.NewTestStore(t), source, "files",
		pathdb.NewNopLogger(), testutil.FixedClock())
	fsmgr := testutil.NewMockFilesystemManager()

	svc := pathdb.NewService(store, testutil.NewTestVault(), testutil.NewTestEncryptor(),
		fsmgr, pathdb.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())
	return svc, fsmgr
}

func TestService_ExportImport(t *testing.T) {
	svc, _ := newTestService(t, "host-a")

	if _, err := svc.Store().Insert("docs", "a", "md", "alpha"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := svc.Store().Insert("docs", "b", "txt", "beta"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	id, err := svc.ExportSource()
	if err != nil {
		t.Fatalf("ExportSource() error = %v", err)
	}
	if id != "id-1" {
		t.Errorf("ExportSource() = %q, want %q", id, "id-1")
	}

	t.Run("import overwrites and restores", func(t *testing.T) {
		// Drift the store away from the snapshot.
		if _, err := svc.Store().Update("docs", "a", "md", "drifted", "", ""); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if err := svc.Store().ForceDelete("docs", "b", "txt"); err != nil {
			t.Fatalf("ForceDelete() error = %v", err)
		}

		n, err := svc.ImportSource(id, "")
		if err != nil {
			t.Fatalf("ImportSource() error = %v", err)
		}
		if n != 2 {
			t.Errorf("ImportSource() = %d files, want 2", n)
		}

		attrs, err := svc.Store().SelectOne("docs", "a", "md")
		if err != nil {
			t.Fatalf("SelectOne() error = %v", err)
		}
		if attrs[pathdb.ColContent] != "alpha" {
			t.Errorf("content = %v, want %q", attrs[pathdb.ColContent], "alpha")
		}

		restored, err := svc.Store().SelectOne("docs", "b", "txt")
		if err != nil {
			t.Fatalf("SelectOne() error = %v", err)
		}
		if restored == nil {
			t.Fatal("deleted file not restored by import")
		}
	})

	t.Run("unknown snapshot", func(t *testing.T) {
		if _, err := svc.ImportSource("no-such-snapshot", ""); err == nil {
			t.Error("ImportSource() expected error for unknown snapshot")
		}
	})
}

func TestService_ImportRejectsForeignSource(t *testing.T) {
	// Export from host-a, then try to import into a host-b scoped service
	// sharing the same vault.
	storeA := pathdb.NewPathStore(testutil.NewTestStore(t), "host-a", "files",
		pathdb.NewNopLogger(), testutil.FixedClock())
	storeB := pathdb.NewPathStore(testutil.NewTestStore(t), "host-b", "files",
		pathdb.NewNopLogger(), testutil.FixedClock())

	v := testutil.NewTestVault()
	enc := testutil.NewTestEncryptor()
	fsmgr := testutil.NewMockFilesystemManager()

	svcA := pathdb.NewService(storeA, v, enc, fsmgr, pathdb.NewNopLogger(),
		testutil.FixedClock(), testutil.NewStubIDGenerator())
	svcB := pathdb.NewService(storeB, v, enc, fsmgr, pathdb.NewNopLogger(),
		testutil.FixedClock(), testutil.NewStubIDGenerator())

	if _, err := storeA.Insert("docs", "a", "md", "alpha"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	id, err := svcA.ExportSource()
	if err != nil {
		t.Fatalf("ExportSource() error = %v", err)
	}

	// The snapshot is stored under host-a, so a host-b fetch misses it.
	if _, err := svcB.ImportSource(id, ""); err == nil {
		t.Error("ImportSource() expected error for foreign snapshot")
	}
}

func TestService_LoadDirectory(t *testing.T) {
	svc, fsmgr := newTestService(t, "host-a")

	root, err := filepath.Abs("/data/notes")
	if err != nil {
		t.Fatal(err)
	}
	fsmgr.AddDirectory(root)
	fsmgr.AddFile(filepath.Join(root, "a.md"), []byte("alpha"))
	fsmgr.AddFile(filepath.Join(root, "sub", "b.txt"), []byte("beta"))
	fsmgr.AddFile(filepath.Join(root, "noext"), []byte("skipped"))
	fsmgr.AddFile(filepath.Join(root, "secret.key"), []byte("ignored"))
	fsmgr.Ignored["secret.key"] = true

	n, err := svc.LoadDirectory(root, "notes")
	if err != nil {
		t.Fatalf("LoadDirectory() error = %v", err)
	}
	if n != 2 {
		t.Errorf("LoadDirectory() = %d files, want 2", n)
	}

	attrs, err := svc.Store().SelectOne("notes", "a", "md")
	if err != nil {
		t.Fatalf("SelectOne() error = %v", err)
	}
	if attrs == nil || attrs[pathdb.ColContent] != "alpha" {
		t.Errorf("notes/a.md = %v, want content %q", attrs, "alpha")
	}

	nested, err := svc.Store().SelectOne("notes/sub", "b", "txt")
	if err != nil {
		t.Fatalf("SelectOne() error = %v", err)
	}
	if nested == nil || nested[pathdb.ColContent] != "beta" {
		t.Errorf("notes/sub/b.txt = %v, want content %q", nested, "beta")
	}

	t.Run("reload upserts", func(t *testing.T) {
		fsmgr.AddFile(filepath.Join(root, "a.md"), []byte("alpha v2"))

		if _, err := svc.LoadDirectory(root, "notes"); err != nil {
			t.Fatalf("second LoadDirectory() error = %v", err)
		}

		attrs, err := svc.Store().SelectOne("notes", "a", "md")
		if err != nil {
			t.Fatalf("SelectOne() error = %v", err)
		}
		if attrs[pathdb.ColContent] != "alpha v2" {
			t.Errorf("content = %v, want %q", attrs[pathdb.ColContent], "alpha v2")
		}
	})

	t.Run("not a directory", func(t *testing.T) {
		if _, err := svc.LoadDirectory(filepath.Join(root, "a.md"), "notes"); err == nil {
			t.Error("LoadDirectory() expected error for file path")
		}
	})
}

func TestService_DumpDirectory(t *testing.T) {
	svc, fsmgr := newTestService(t, "host-a")

	if _, err := svc.Store().Insert("notes", "a", "md", "alpha"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := svc.Store().Insert("notes/sub", "b", "txt", "beta"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := svc.Store().Insert("other", "c", "md", "elsewhere"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	out, err := filepath.Abs("/out")
	if err != nil {
		t.Fatal(err)
	}

	n, err := svc.DumpDirectory("notes", out)
	if err != nil {
		t.Fatalf("DumpDirectory() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DumpDirectory() = %d files, want 2", n)
	}

	got, ok := fsmgr.WrittenFile(filepath.Join(out, "a.md"))
	if !ok || string(got) != "alpha" {
		t.Errorf("a.md = %q, %v; want %q", got, ok, "alpha")
	}
	got, ok = fsmgr.WrittenFile(filepath.Join(out, "sub", "b.txt"))
	if !ok || string(got) != "beta" {
		t.Errorf("sub/b.txt = %q, %v; want %q", got, ok, "beta")
	}

	// Files from other directories stay out of the dump.
	if _, ok := fsmgr.WrittenFile(filepath.Join(out, "c.md")); ok {
		t.Error("dump included a file from another directory")
	}
}

func TestService_ExportEmptySource(t *testing.T) {
	svc, _ := newTestService(t, "host-a")

	id, err := svc.ExportSource()
	if err != nil {
		t.Fatalf("ExportSource() error = %v", err)
	}
	if !strings.HasPrefix(id, "id-") {
		t.Errorf("ExportSource() = %q, want stub-generated ID", id)
	}

	n, err := svc.ImportSource(id, "")
	if err != nil {
		t.Fatalf("ImportSource() error = %v", err)
	}
	if n != 0 {
		t.Errorf("ImportSource() = %d files, want 0", n)
	}
}
