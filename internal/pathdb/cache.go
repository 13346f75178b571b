package pathdb

import "hash/crc32"

// pathsCacheKeyPrefix is the fixed prefix of the availability cache key.
const pathsCacheKeyPrefix = "pathdb-store"

// MakeCacheKey derives a short cache discriminator from the source and a
// name. It is a CRC-32 checksum: collisions are possible and tolerated by
// callers.
func (d *PathStore) MakeCacheKey(name string) uint32 {
	return crc32.ChecksumIEEE([]byte(d.source + name))
}

// PathsCacheKey returns the deterministic cache key under which callers
// store this source's availability map. Extensions may append further
// discriminators (e.g. a tenant id).
func (d *PathStore) PathsCacheKey() string {
	key := pathsCacheKeyPrefix + "-" + d.table + "-" + d.source
	for _, ext := range d.extensions {
		key = ext.PathsCacheKey(key)
	}
	return key
}

// AvailablePaths computes the full existence map for this source: every
// known path mapped to whether it currently exists. Soft-deleted paths are
// present with value false; force-deleted paths are absent entirely.
//
// An extension may short-circuit the computation by supplying a non-empty
// precomputed map; the first such result is authoritative.
func (d *PathStore) AvailablePaths() (map[string]bool, error) {
	for _, ext := range d.extensions {
		if m := ext.AvailablePaths(); len(m) > 0 {
			return m, nil
		}
	}

	liveRows, err := d.store.Select(d.scopedQuery(false).SetColumns(colPath))
	if err != nil {
		return nil, err
	}

	deletedRows, err := d.store.Select(
		d.scopedQuery(true).WhereNotNull(colDeletedAt).SetColumns(colPath))
	if err != nil {
		return nil, err
	}

	paths := make(map[string]bool, len(liveRows)+len(deletedRows))
	for _, row := range liveRows {
		paths[rowString(row, colPath)] = true
	}
	// Uniqueness means a path cannot be in both sets; if it ever were,
	// deleted wins.
	for _, row := range deletedRows {
		paths[rowString(row, colPath)] = false
	}

	return paths, nil
}
