package pathdb

import (
	"fmt"
	"path"
)

// SelectOne reads a single file by its exact path. Returns nil (not an
// error) when no live file exists at the path.
func (d *PathStore) SelectOne(dirName, fileName, extension string) (FileAttrs, error) {
	filePath := JoinPath(dirName, fileName, extension)

	q := d.scopedQuery(false).Where(colPath, filePath).AddColumns(colContent)
	row, err := d.store.SelectOne(q)
	if err != nil {
		return nil, fmt.Errorf("selecting %s: %w", filePath, err)
	}
	if row == nil {
		return nil, nil
	}

	mtime, err := modTime(row[colUpdatedAt])
	if err != nil {
		return nil, fmt.Errorf("selecting %s: %w", filePath, err)
	}

	return FileAttrs{
		ColFileName: Basename(filePath),
		ColContent:  rowString(row, colContent),
		ColMtime:    mtime.Unix(),
		ColRecord:   row,
	}, nil
}

// Select enumerates live files under dirName, optionally restricted by
// extension and basename glob, optionally projected to a subset of fields.
//
// The directory match is a plain prefix match, not boundary-aware: selecting
// under "docs" also returns files under "docsarchive/". Callers relying on
// directory boundaries must pass a trailing separator.
//
// Results come back in store-returned order; Orders, Limit and Offset on the
// options have no effect. An empty result is a nil slice, not an error.
func (d *PathStore) Select(dirName string, opts SelectOptions) ([]FileAttrs, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	cols := opts.columnSet()

	q := d.scopedQuery(false).WhereLike(colPath, dirName+"%")

	if len(opts.Extensions) > 0 {
		group := make(FilterGroup, 0, len(opts.Extensions))
		for _, ext := range opts.Extensions {
			group = append(group, Filter{Column: colPath, Op: OpLike, Value: "%." + ext})
		}
		q.WhereAny(group)
	}

	// Full mode reads content for every row. Restricted mode narrows the
	// scan to source and path plus only what the requested fields need.
	if cols == nil {
		q.AddColumns(colContent)
	} else {
		projection := []string{colSource, colPath}
		if cols[ColContent] {
			projection = append(projection, colContent)
		}
		if cols[ColMtime] {
			projection = append(projection, colUpdatedAt)
		}
		q.SetColumns(projection...)
	}

	rows, err := d.store.Select(q)
	if err != nil {
		return nil, fmt.Errorf("selecting under %s: %w", dirName, err)
	}

	var results []FileAttrs
	for _, row := range rows {
		filePath := rowString(row, colPath)
		fileName := Basename(filePath)

		if opts.FileMatch != "" {
			ok, err := path.Match(opts.FileMatch, fileName)
			if err != nil {
				return nil, fmt.Errorf("bad file match pattern %q: %w", opts.FileMatch, err)
			}
			if !ok {
				continue
			}
		}

		attrs := make(FileAttrs, 4)
		if cols == nil || cols[ColFileName] {
			attrs[ColFileName] = fileName
		}
		if cols == nil || cols[ColContent] {
			attrs[ColContent] = rowString(row, colContent)
		}
		if cols == nil || cols[ColMtime] {
			mtime, err := modTime(row[colUpdatedAt])
			if err != nil {
				return nil, fmt.Errorf("selecting under %s: %w", dirName, err)
			}
			attrs[ColMtime] = mtime.Unix()
		}
		if cols == nil || cols[ColRecord] {
			attrs[ColRecord] = row
		}
		results = append(results, attrs)
	}

	return results, nil
}

// LastModified returns the file's modification time as epoch seconds.
// ok is false when the file does not exist — and also on any lookup or
// timestamp parse failure; callers cannot distinguish the two. Preserved
// as documented behavior: callers depend on "absent on any failure".
func (d *PathStore) LastModified(dirName, fileName, extension string) (epoch int64, ok bool) {
	filePath := JoinPath(dirName, fileName, extension)

	row, err := d.store.SelectOne(d.scopedQuery(false).Where(colPath, filePath))
	if err != nil || row == nil {
		return 0, false
	}

	mtime, err := modTime(row[colUpdatedAt])
	if err != nil {
		return 0, false
	}
	return mtime.Unix(), true
}
