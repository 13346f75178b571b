package pathdb

import "fmt"

// Result field names recognized by SelectOptions.Columns and used as keys in
// FileAttrs results.
const (
	ColFileName = "fileName"
	ColContent  = "content"
	ColMtime    = "mtime"
	ColRecord   = "record"
)

// FileAttrs is one Select/SelectOne result. It holds exactly the fields the
// caller asked for: all four when no column restriction was given, otherwise
// only the requested subset.
type FileAttrs map[string]any

// SelectOptions configures a Select call. The zero value selects every
// field of every file under the directory.
type SelectOptions struct {
	// Columns restricts the result fields to a subset of ColFileName,
	// ColContent, ColMtime, ColRecord. Nil, empty, or a single "*" entry
	// means all fields.
	Columns []string

	// Extensions, when non-empty, restricts results to paths ending in
	// "." followed by one of the given extensions.
	Extensions []string

	// FileMatch, when non-empty, is a shell glob (*, ?, bracket classes)
	// applied to the basename of each path. Non-matching rows are dropped.
	FileMatch string

	// Orders, Limit, and Offset are accepted but not implemented: the
	// backing scan applies no ordering or pagination, and callers must not
	// depend on these fields having any effect.
	Orders []string
	Limit  int
	Offset int
}

// Validate checks the options at the call boundary. Unknown column names are
// rejected rather than silently ignored.
func (o SelectOptions) Validate() error {
	for _, c := range o.Columns {
		switch c {
		case "*", ColFileName, ColContent, ColMtime, ColRecord:
		default:
			return fmt.Errorf("unknown select column %q", c)
		}
	}
	for _, ext := range o.Extensions {
		if ext == "" {
			return fmt.Errorf("empty extension in select options")
		}
	}
	return nil
}

// columnSet returns the requested result fields as a set, or nil when all
// fields were requested (no restriction, or an explicit "*").
func (o SelectOptions) columnSet() map[string]bool {
	if len(o.Columns) == 0 {
		return nil
	}
	set := make(map[string]bool, len(o.Columns))
	for _, c := range o.Columns {
		if c == "*" {
			return nil
		}
		set[c] = true
	}
	return set
}
