package pathdb

import "errors"

// ErrConflict is returned by TableStore.Insert when a uniqueness constraint
// rejects the row. The store maps it to a FileExistsError at the operation
// boundary.
var ErrConflict = errors.New("row conflicts with an existing row")

// Row is a table row as returned by (or handed to) a TableStore. Keys are
// column names. Values are driver-native: string, int64, time.Time, or nil
// for SQL NULL.
type Row map[string]any

// FilterOp identifies the comparison a Filter performs.
type FilterOp int

const (
	// OpEq matches rows where the column equals the value.
	OpEq FilterOp = iota
	// OpLike matches rows where the column matches a SQL LIKE pattern.
	OpLike
	// OpNull matches rows where the column is NULL.
	OpNull
	// OpNotNull matches rows where the column is not NULL.
	OpNotNull
)

// Filter is a single column predicate. Value is ignored for OpNull and
// OpNotNull.
type Filter struct {
	Column string
	Op     FilterOp
	Value  any
}

// FilterGroup is a disjunction: a row matches the group when it matches any
// member filter.
type FilterGroup []Filter

// Query describes a filtered, column-projected scan over one table.
// All top-level filters and groups are conjoined. Queries are built by the
// store's query builder and may be mutated in place by extensions before
// execution.
type Query struct {
	Table   string
	Columns []string
	Filters []Filter
	Groups  []FilterGroup
}

// NewQuery creates a query over the named table with no filters and no
// explicit projection (all columns).
func NewQuery(table string) *Query {
	return &Query{Table: table}
}

// SetColumns replaces the projection with the given columns.
func (q *Query) SetColumns(columns ...string) *Query {
	q.Columns = columns
	return q
}

// AddColumns appends columns to the projection.
func (q *Query) AddColumns(columns ...string) *Query {
	q.Columns = append(q.Columns, columns...)
	return q
}

// Where adds an equality filter.
func (q *Query) Where(column string, value any) *Query {
	q.Filters = append(q.Filters, Filter{Column: column, Op: OpEq, Value: value})
	return q
}

// WhereLike adds a SQL LIKE filter.
func (q *Query) WhereLike(column, pattern string) *Query {
	q.Filters = append(q.Filters, Filter{Column: column, Op: OpLike, Value: pattern})
	return q
}

// WhereNull adds an IS NULL filter.
func (q *Query) WhereNull(column string) *Query {
	q.Filters = append(q.Filters, Filter{Column: column, Op: OpNull})
	return q
}

// WhereNotNull adds an IS NOT NULL filter.
func (q *Query) WhereNotNull(column string) *Query {
	q.Filters = append(q.Filters, Filter{Column: column, Op: OpNotNull})
	return q
}

// WhereAny adds a disjunctive filter group. The group as a whole is
// conjoined with the query's other filters.
func (q *Query) WhereAny(group FilterGroup) *Query {
	q.Groups = append(q.Groups, group)
	return q
}

// TableStore provides an interface for the relational table backing a
// PathStore. Implementations own connection handling and query execution;
// no cancellation or timeout semantics are defined at this layer.
type TableStore interface {
	// Select executes the query and returns all matching rows.
	Select(q *Query) ([]Row, error)

	// SelectOne executes the query and returns the first matching row,
	// or nil when nothing matches.
	SelectOne(q *Query) (Row, error)

	// Count returns the number of rows matching the query.
	Count(q *Query) (int64, error)

	// Insert adds a row to the query's table. The query carries no filters;
	// it only identifies the target table. Returns ErrConflict (possibly
	// wrapped) when a uniqueness constraint rejects the row.
	Insert(q *Query, row Row) error

	// Update sets the given column values on all rows matching the query
	// and returns the number of rows changed.
	Update(q *Query, values Row) (int64, error)

	// Delete removes all rows matching the query and returns the number of
	// rows removed.
	Delete(q *Query) (int64, error)

	// Close releases the underlying connection.
	Close() error
}
