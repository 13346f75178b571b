package pathdb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"pathdb-go/internal/model"
)

// Service is the orchestration layer between the CLI and the PathStore.
// It coordinates the store, vault, encryptor and local filesystem for the
// operations that cross component boundaries: snapshot export/import and
// directory load/dump.
type Service struct {
	store     *PathStore
	vault     Vault
	encryptor Encryptor
	fsmgr     FilesystemManager
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewService creates a Service with the provided dependencies.
func NewService(store *PathStore, vault Vault, encryptor Encryptor, fsmgr FilesystemManager, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		store:     store,
		vault:     vault,
		encryptor: encryptor,
		fsmgr:     fsmgr,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// Store returns the underlying PathStore.
func (s *Service) Store() *PathStore { return s.store }

// ExportSource snapshots every live file of the source, encrypts the
// snapshot, and stores it in the vault. Returns the snapshot ID.
func (s *Service) ExportSource() (string, error) {
	files, err := s.store.Select("", SelectOptions{})
	if err != nil {
		return "", fmt.Errorf("reading source files: %w", err)
	}

	snap := model.Snapshot{
		Info: model.SnapshotInfo{
			ID:        s.idgen.New(),
			Source:    s.store.Source(),
			CreatedAt: s.clock.Now().UTC(),
			FileCount: len(files),
		},
	}
	for _, attrs := range files {
		record, ok := attrs[ColRecord].(Row)
		if !ok {
			return "", fmt.Errorf("select result missing record field")
		}
		snap.Files = append(snap.Files, model.SnapshotFile{
			Path:       rowString(record, colPath),
			Content:    attrs[ColContent].(string),
			Size:       rowInt64(record, colFileSize),
			ModifiedAt: attrs[ColMtime].(int64),
		})
	}

	payload, err := json.Marshal(&snap)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	var sealed bytes.Buffer
	if err := s.encryptor.Encrypt(bytes.NewReader(payload), &sealed); err != nil {
		return "", fmt.Errorf("encrypting snapshot: %w", err)
	}

	if err := s.vault.PutSnapshot(snap.Info.Source, snap.Info.ID, &sealed, int64(sealed.Len())); err != nil {
		return "", fmt.Errorf("storing snapshot: %w", err)
	}

	s.logger.Info("snapshot exported",
		"source", snap.Info.Source, "snapshot", snap.Info.ID, "files", snap.Info.FileCount)
	return snap.Info.ID, nil
}

// ImportSource fetches a snapshot from the vault, decrypts it with the
// passphrase-unlocked private key, and replays its files into the store.
// Existing files are overwritten; files absent from the snapshot are left
// untouched. Returns the number of files imported.
func (s *Service) ImportSource(snapshotID, passphrase string) (int, error) {
	dctx, err := s.encryptor.Unlock(passphrase)
	if err != nil {
		return 0, fmt.Errorf("unlocking private key: %w", err)
	}

	var sealed bytes.Buffer
	if err := s.vault.GetSnapshot(s.store.Source(), snapshotID, &sealed); err != nil {
		return 0, fmt.Errorf("fetching snapshot: %w", err)
	}

	var payload bytes.Buffer
	if err := dctx.Decrypt(&sealed, &payload); err != nil {
		return 0, fmt.Errorf("decrypting snapshot: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(payload.Bytes(), &snap); err != nil {
		return 0, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Info.Source != s.store.Source() {
		return 0, fmt.Errorf("snapshot belongs to source %q, store is scoped to %q",
			snap.Info.Source, s.store.Source())
	}

	count := 0
	for _, f := range snap.Files {
		dirName, fileName, extension := SplitPath(f.Path)
		if _, err := s.upsert(dirName, fileName, extension, f.Content); err != nil {
			return count, fmt.Errorf("importing %s: %w", f.Path, err)
		}
		count++
	}

	s.logger.Info("snapshot imported",
		"source", snap.Info.Source, "snapshot", snapshotID, "files", count)
	return count, nil
}

// LoadDirectory walks a local directory tree and upserts each regular file
// into the store under dirName/<relative path>. Ignored files and files
// without an extension are skipped. Returns the number of files loaded.
func (s *Service) LoadDirectory(localRoot, dirName string) (int, error) {
	root, err := s.fsmgr.Resolve(localRoot)
	if err != nil {
		return 0, fmt.Errorf("resolving path: %w", err)
	}
	if !root.IsDir() {
		return 0, fmt.Errorf("path is not a directory: %s", root.String())
	}

	files, err := s.fsmgr.FindFiles(root, true)
	if err != nil {
		return 0, fmt.Errorf("finding files: %w", err)
	}

	count := 0
	for _, f := range files {
		ignored, err := s.fsmgr.IsIgnored(f, root.String())
		if err != nil {
			return count, fmt.Errorf("checking ignore patterns: %w", err)
		}
		if ignored {
			continue
		}

		rel, err := filepath.Rel(root.String(), f.String())
		if err != nil {
			return count, fmt.Errorf("calculating relative path: %w", err)
		}

		subDir, fileName, extension := SplitPath(dirName + "/" + filepath.ToSlash(rel))
		if extension == "" {
			s.logger.Warn("skipping file without extension", "path", rel)
			continue
		}

		rc, err := s.fsmgr.Open(f)
		if err != nil {
			return count, fmt.Errorf("opening %s: %w", f.String(), err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return count, fmt.Errorf("reading %s: %w", f.String(), err)
		}

		if _, err := s.upsert(subDir, fileName, extension, string(content)); err != nil {
			return count, err
		}
		count++
	}

	s.logger.Info("directory loaded", "root", root.String(), "dir", dirName, "files", count)
	return count, nil
}

// DumpDirectory writes every live file under dirName back out to a local
// directory, mirroring the store's sub-directory structure. Returns the
// number of files written.
func (s *Service) DumpDirectory(dirName, localRoot string) (int, error) {
	files, err := s.store.Select(dirName+"/", SelectOptions{})
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", dirName, err)
	}

	count := 0
	for _, attrs := range files {
		record := attrs[ColRecord].(Row)
		path := rowString(record, colPath)
		rel := strings.TrimPrefix(path, dirName+"/")

		abs := filepath.Join(localRoot, filepath.FromSlash(rel))
		if err := s.fsmgr.WriteFile(abs, []byte(attrs[ColContent].(string))); err != nil {
			return count, fmt.Errorf("writing %s: %w", abs, err)
		}
		count++
	}

	s.logger.Info("directory dumped", "dir", dirName, "root", localRoot, "files", count)
	return count, nil
}

// upsert inserts the file, falling back to an in-place update when a live
// file already occupies the path.
func (s *Service) upsert(dirName, fileName, extension, content string) (int, error) {
	n, err := s.store.Insert(dirName, fileName, extension, content)
	var exists *FileExistsError
	if errors.As(err, &exists) {
		return s.store.Update(dirName, fileName, extension, content, "", "")
	}
	return n, err
}
