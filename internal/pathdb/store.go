package pathdb

import "errors"

// Persisted column names of the backing table.
const (
	colSource    = "source"
	colPath      = "path"
	colContent   = "content"
	colFileSize  = "file_size"
	colUpdatedAt = "updated_at"
	colDeletedAt = "deleted_at"
)

// DefaultTable is the backing table name used when none is configured.
const DefaultTable = "files"

// PathStore is a virtual, path-addressed file store layered on a relational
// table. Logical files are identified by a synthetic path
// (dirName/fileName.extension) within a named source; multiple independent
// stores share one physical table, isolated by an equality filter on source.
//
// A PathStore holds no state beyond its identifiers and registered
// extensions, so a single instance is safe to share across goroutines as
// long as the TableStore is.
type PathStore struct {
	store      TableStore
	source     string
	table      string
	extensions []Extension
	logger     Logger
	clock      Clock
}

// NewPathStore creates a store over the given table, scoped to source.
func NewPathStore(store TableStore, source, table string, logger Logger, clock Clock) *PathStore {
	if table == "" {
		table = DefaultTable
	}
	return &PathStore{
		store:  store,
		source: source,
		table:  table,
		logger: logger,
		clock:  clock,
	}
}

// Source returns the source this store is scoped to.
func (d *PathStore) Source() string { return d.source }

// Table returns the backing table name.
func (d *PathStore) Table() string { return d.table }

// Extend registers an extension. Extensions run synchronously in
// registration order at each hook point.
func (d *PathStore) Extend(ext Extension) {
	d.extensions = append(d.extensions, ext)
}

// baseQuery returns an unscoped query over the backing table. It bypasses
// the source filter and is used only for raw inserts, where the row already
// carries its own source.
func (d *PathStore) baseQuery() *Query {
	return NewQuery(d.table)
}

// scopedQuery returns a query filtered to this store's source, selecting the
// identity and metadata columns. When includeDeleted is false, soft-deleted
// rows are excluded and the deleted_at column joins the projection so
// downstream code can detect unexpected tombstones. Registered extensions
// may mutate the query before it is returned.
func (d *PathStore) scopedQuery(includeDeleted bool) *Query {
	q := d.baseQuery().
		SetColumns(colPath, colUpdatedAt, colFileSize).
		Where(colSource, d.source)

	if !includeDeleted {
		q.WhereNull(colDeletedAt).AddColumns(colDeletedAt)
	}

	for _, ext := range d.extensions {
		ext.ExtendQuery(q, includeDeleted)
	}

	return q
}

// Insert creates a new file and returns its size in bytes. It fails with
// FileExistsError when a live file already occupies the path. When a
// soft-deleted row occupies the path, the tombstone is resurrected by
// overwrite: content, size and timestamp are refreshed and the deletion mark
// cleared, exactly as Update does.
func (d *PathStore) Insert(dirName, fileName, extension, content string) (int, error) {
	path := JoinPath(dirName, fileName, extension)

	live, err := d.store.Count(d.scopedQuery(false).Where(colPath, path))
	if err != nil {
		return 0, &CreateFileError{Path: path, cause: err}
	}
	if live > 0 {
		return 0, &FileExistsError{Path: path}
	}

	// A tombstone at this path is resurrected via the update path.
	trashed, err := d.store.Count(d.scopedQuery(true).Where(colPath, path).WhereNotNull(colDeletedAt))
	if err != nil {
		return 0, &CreateFileError{Path: path, cause: err}
	}
	if trashed > 0 {
		return d.Update(dirName, fileName, extension, content, "", "")
	}

	row := Row{
		colSource:    d.source,
		colPath:      path,
		colContent:   content,
		colFileSize:  len(content),
		colUpdatedAt: d.clock.Now(),
		colDeletedAt: nil,
	}
	for _, ext := range d.extensions {
		ext.BeforeInsert(row)
	}

	if err := d.store.Insert(d.baseQuery(), row); err != nil {
		// The existence check above is advisory; the table's uniqueness
		// constraint is the real guarantee against concurrent inserts.
		if errors.Is(err, ErrConflict) {
			return 0, &FileExistsError{Path: path}
		}
		return 0, &CreateFileError{Path: path, cause: err}
	}

	d.logger.Debug("file inserted", "source", d.source, "path", path, "size", len(content))
	return len(content), nil
}

// Update overwrites a file's content and returns the new size in bytes.
// When oldFileName or oldExtension is non-empty, the row is looked up under
// the old name and renamed in place to the new one; no new row is created.
// Updating a tombstone resurrects it: an update always clears deleted_at.
func (d *PathStore) Update(dirName, fileName, extension, content, oldFileName, oldExtension string) (int, error) {
	if oldFileName == "" {
		oldFileName = fileName
	}
	if oldExtension == "" {
		oldExtension = extension
	}

	path := JoinPath(dirName, fileName, extension)
	searchPath := JoinPath(dirName, oldFileName, oldExtension)

	values := Row{
		colPath:      path,
		colContent:   content,
		colFileSize:  len(content),
		colUpdatedAt: d.clock.Now(),
		colDeletedAt: nil,
	}
	for _, ext := range d.extensions {
		ext.BeforeUpdate(values)
	}

	q := d.scopedQuery(true).Where(colPath, searchPath)
	if _, err := d.store.Update(q, values); err != nil {
		return 0, &CreateFileError{Path: path, cause: err}
	}

	d.logger.Debug("file updated", "source", d.source, "path", path, "previous", searchPath, "size", len(content))
	return len(content), nil
}

// Delete soft-deletes a file: the live row at the path is marked with a
// deletion timestamp and disappears from all default reads. Deleting a path
// with no live row is a no-op that still succeeds.
func (d *PathStore) Delete(dirName, fileName, extension string) error {
	return d.deleteFile(dirName, fileName, extension, false)
}

// ForceDelete permanently removes the live row at the path. The path
// afterwards has no row at all, not even a tombstone.
func (d *PathStore) ForceDelete(dirName, fileName, extension string) error {
	return d.deleteFile(dirName, fileName, extension, true)
}

// deleteFile performs both delete flavors. force is an explicit parameter,
// never shared state, so concurrent deletes on one instance cannot leak a
// forced delete into a soft one.
func (d *PathStore) deleteFile(dirName, fileName, extension string, force bool) error {
	path := JoinPath(dirName, fileName, extension)
	q := d.scopedQuery(false).Where(colPath, path)

	var err error
	if force {
		_, err = d.store.Delete(q)
	} else {
		_, err = d.store.Update(q, Row{colDeletedAt: d.clock.Now()})
	}
	if err != nil {
		return &DeleteFileError{Path: path, cause: err}
	}

	d.logger.Debug("file deleted", "source", d.source, "path", path, "force", force)
	return nil
}
