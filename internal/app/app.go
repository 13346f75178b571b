package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"pathdb-go/internal/config"
	"pathdb-go/internal/encryption"
	"pathdb-go/internal/fs"
	"pathdb-go/internal/pathdb"
	"pathdb-go/internal/tablestore"
	"pathdb-go/internal/vault"
)

// App is the application layer between the CLI and the pathdb service.
// It constructs all dependencies from config, exposes high-level operations
// that accept virtual paths as plain strings, and manages the store
// lifecycle on Close.
type App struct {
	cfg       *config.Config
	store     *tablestore.SQLiteStore
	files     *pathdb.PathStore
	vault     pathdb.Vault
	encryptor pathdb.Encryptor
	fsmgr     pathdb.FilesystemManager
	service   *pathdb.Service
	logFile   *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "put", "export"); it
// is stamped on every log line. The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	fsmgr := fs.NewOSFilesystemManager(cfg.Filesystem.Ignore)

	if len(cfg.Vaults) == 0 {
		return nil, fmt.Errorf("no vaults configured")
	}
	v, err := vault.NewVaultFromConfig(cfg.Vaults[0])
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}

	store, err := tablestore.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	if err := store.CheckMigrations(); err != nil {
		store.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	opID := operation + "-" + time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	slogger := &slogAdapter{l: logger}
	files := pathdb.NewPathStore(store, cfg.Store.Source, cfg.Store.Table, slogger, pathdb.RealClock{})
	svc := pathdb.NewService(files, v, enc, fsmgr, slogger, pathdb.RealClock{}, pathdb.UUIDGenerator{})

	return &App{
		cfg:       cfg,
		store:     store,
		files:     files,
		vault:     v,
		encryptor: enc,
		fsmgr:     fsmgr,
		service:   svc,
		logFile:   logFile,
	}, nil
}

// Files returns the underlying PathStore.
func (a *App) Files() *pathdb.PathStore { return a.files }

// Put stores content at the given virtual path, overwriting any existing
// file there.
func (a *App) Put(virtualPath, content string) error {
	dirName, fileName, extension := pathdb.SplitPath(virtualPath)
	if fileName == "" || extension == "" {
		return fmt.Errorf("invalid path %q: want dir/name.ext", virtualPath)
	}

	_, err := a.files.Insert(dirName, fileName, extension, content)
	var exists *pathdb.FileExistsError
	if errors.As(err, &exists) {
		_, err = a.files.Update(dirName, fileName, extension, content, "", "")
	}
	return err
}

// Cat returns the content stored at the given virtual path.
func (a *App) Cat(virtualPath string) (string, error) {
	dirName, fileName, extension := pathdb.SplitPath(virtualPath)

	attrs, err := a.files.SelectOne(dirName, fileName, extension)
	if err != nil {
		return "", err
	}
	if attrs == nil {
		return "", fmt.Errorf("file not found: %s", virtualPath)
	}

	content, _ := attrs[pathdb.ColContent].(string)
	return content, nil
}

// List returns the files under dirName, shaped by opts.
func (a *App) List(dirName string, opts pathdb.SelectOptions) ([]pathdb.FileAttrs, error) {
	return a.files.Select(dirName, opts)
}

// Remove deletes the file at the given virtual path. Without force the file
// is trashed and can be resurrected by a later Put; with force the row is
// removed permanently.
func (a *App) Remove(virtualPath string, force bool) error {
	dirName, fileName, extension := pathdb.SplitPath(virtualPath)
	if force {
		return a.files.ForceDelete(dirName, fileName, extension)
	}
	return a.files.Delete(dirName, fileName, extension)
}

// Move renames a file within its directory, preserving its content.
func (a *App) Move(oldPath, newPath string) error {
	oldDir, oldFile, oldExt := pathdb.SplitPath(oldPath)
	newDir, newFile, newExt := pathdb.SplitPath(newPath)

	if oldDir != newDir {
		return fmt.Errorf("cannot move between directories: %s -> %s", oldDir, newDir)
	}
	if newFile == "" || newExt == "" {
		return fmt.Errorf("invalid path %q: want dir/name.ext", newPath)
	}

	attrs, err := a.files.SelectOne(oldDir, oldFile, oldExt)
	if err != nil {
		return err
	}
	if attrs == nil {
		return fmt.Errorf("file not found: %s", oldPath)
	}

	content, _ := attrs[pathdb.ColContent].(string)
	_, err = a.files.Update(newDir, newFile, newExt, content, oldFile, oldExt)
	return err
}

// Paths returns the availability map for the configured source: live paths
// map to true, trashed paths to false.
func (a *App) Paths() (map[string]bool, error) {
	return a.files.AvailablePaths()
}

// Load walks localRoot and stores its files under dirName.
// Returns the number of files loaded.
func (a *App) Load(localRoot, dirName string) (int, error) {
	return a.service.LoadDirectory(localRoot, dirName)
}

// Dump writes the files under dirName to localRoot.
// Returns the number of files written.
func (a *App) Dump(dirName, localRoot string) (int, error) {
	return a.service.DumpDirectory(dirName, localRoot)
}

// Export snapshots the source to the vault and returns the snapshot ID.
func (a *App) Export() (string, error) {
	return a.service.ExportSource()
}

// Import restores a snapshot from the vault into the store.
// Returns the number of files imported.
func (a *App) Import(snapshotID, passphrase string) (int, error) {
	return a.service.ImportSource(snapshotID, passphrase)
}

// Close closes all resources.
func (a *App) Close() error {
	var firstErr error

	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
