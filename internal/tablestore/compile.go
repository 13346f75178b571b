package tablestore

import (
	"fmt"
	"sort"
	"strings"

	"pathdb-go/internal/pathdb"
)

// This file compiles pathdb.Query values to parameterized SQL for SQLite.
// All values are parameterized, never interpolated; only column and table
// names (which come from code, not callers) are spliced into the statement.

// compileSelect builds a SELECT statement for the query.
func compileSelect(q *pathdb.Query) (string, []any) {
	cols := "*"
	if len(q.Columns) > 0 {
		cols = strings.Join(q.Columns, ", ")
	}
	where, params := compileWhere(q)
	return fmt.Sprintf("SELECT %s FROM %s%s", cols, q.Table, where), params
}

// compileCount builds a SELECT COUNT(*) statement for the query.
func compileCount(q *pathdb.Query) (string, []any) {
	where, params := compileWhere(q)
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", q.Table, where), params
}

// compileInsert builds an INSERT statement for the row. Columns are sorted
// for deterministic output.
func compileInsert(table string, row pathdb.Row) (string, []any) {
	cols := sortedColumns(row)

	placeholders := make([]string, len(cols))
	params := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = "?"
		params[i] = row[col]
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return stmt, params
}

// compileUpdate builds an UPDATE statement setting the given values on all
// rows matching the query. Columns are sorted for deterministic output.
func compileUpdate(q *pathdb.Query, values pathdb.Row) (string, []any) {
	cols := sortedColumns(values)

	assignments := make([]string, len(cols))
	params := make([]any, 0, len(cols))
	for i, col := range cols {
		assignments[i] = col + " = ?"
		params = append(params, values[col])
	}

	where, whereParams := compileWhere(q)
	stmt := fmt.Sprintf("UPDATE %s SET %s%s", q.Table, strings.Join(assignments, ", "), where)
	return stmt, append(params, whereParams...)
}

// compileDelete builds a DELETE statement for the query.
func compileDelete(q *pathdb.Query) (string, []any) {
	where, params := compileWhere(q)
	return fmt.Sprintf("DELETE FROM %s%s", q.Table, where), params
}

// compileWhere renders the query's filters and disjunctive groups as a
// WHERE clause (with leading space), or an empty string when the query is
// unfiltered. Top-level filters and groups are conjoined; each group's
// members are joined with OR.
func compileWhere(q *pathdb.Query) (string, []any) {
	var conjuncts []string
	var params []any

	for _, f := range q.Filters {
		clause, p := compileFilter(f)
		conjuncts = append(conjuncts, clause)
		params = append(params, p...)
	}

	for _, group := range q.Groups {
		disjuncts := make([]string, 0, len(group))
		for _, f := range group {
			clause, p := compileFilter(f)
			disjuncts = append(disjuncts, clause)
			params = append(params, p...)
		}
		conjuncts = append(conjuncts, "("+strings.Join(disjuncts, " OR ")+")")
	}

	if len(conjuncts) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conjuncts, " AND "), params
}

// compileFilter renders a single predicate.
func compileFilter(f pathdb.Filter) (string, []any) {
	switch f.Op {
	case pathdb.OpEq:
		return f.Column + " = ?", []any{f.Value}
	case pathdb.OpLike:
		return f.Column + " LIKE ?", []any{f.Value}
	case pathdb.OpNull:
		return f.Column + " IS NULL", nil
	case pathdb.OpNotNull:
		return f.Column + " IS NOT NULL", nil
	default:
		panic(fmt.Sprintf("unknown filter op %d", f.Op))
	}
}

// sortedColumns returns the row's column names in sorted order.
func sortedColumns(row pathdb.Row) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
