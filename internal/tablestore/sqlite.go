package tablestore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"pathdb-go/internal/pathdb"
	"pathdb-go/internal/tablestore/migrations"
)

// SQLiteStore implements the pathdb.TableStore interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite store.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, path: ""}
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. Exported for tools and tests that need a properly configured
// connection. path can be a file path or ":memory:".
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Wait for locks rather than failing immediately when another process
	// holds the database.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Select executes the query and returns all matching rows.
func (s *SQLiteStore) Select(q *pathdb.Query) ([]pathdb.Row, error) {
	stmt, params := compileSelect(q)

	rows, err := s.db.Query(stmt, params...)
	if err != nil {
		return nil, fmt.Errorf("executing select: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// SelectOne executes the query and returns the first matching row,
// or nil when nothing matches.
func (s *SQLiteStore) SelectOne(q *pathdb.Query) (pathdb.Row, error) {
	stmt, params := compileSelect(q)

	rows, err := s.db.Query(stmt+" LIMIT 1", params...)
	if err != nil {
		return nil, fmt.Errorf("executing select: %w", err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil // Not found
	}
	return result[0], nil
}

// Count returns the number of rows matching the query.
func (s *SQLiteStore) Count(q *pathdb.Query) (int64, error) {
	stmt, params := compileCount(q)

	var n int64
	if err := s.db.QueryRow(stmt, params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("executing count: %w", err)
	}
	return n, nil
}

// Insert adds a row to the query's table. Uniqueness constraint violations
// are reported as pathdb.ErrConflict so the caller can surface them as a
// domain error.
func (s *SQLiteStore) Insert(q *pathdb.Query, row pathdb.Row) error {
	stmt, params := compileInsert(q.Table, row)

	if _, err := s.db.Exec(stmt, params...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", pathdb.ErrConflict, err)
		}
		return fmt.Errorf("executing insert: %w", err)
	}
	return nil
}

// Update sets the given column values on all rows matching the query.
func (s *SQLiteStore) Update(q *pathdb.Query, values pathdb.Row) (int64, error) {
	stmt, params := compileUpdate(q, values)

	res, err := s.db.Exec(stmt, params...)
	if err != nil {
		return 0, fmt.Errorf("executing update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return affected, nil
}

// Delete removes all rows matching the query.
func (s *SQLiteStore) Delete(q *pathdb.Query) (int64, error) {
	stmt, params := compileDelete(q)

	res, err := s.db.Exec(stmt, params...)
	if err != nil {
		return 0, fmt.Errorf("executing delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return affected, nil
}

// Path returns the database file path (or ":memory:" for in-memory stores).
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckStatus(s.db)
}

// Migrate runs all pending migrations.
func (s *SQLiteStore) Migrate() error {
	return migrations.Up(s.db)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// scanRows reads all rows into column-keyed maps. TEXT columns may scan as
// []byte depending on how the value was bound; normalize them to string so
// callers see a single representation.
func scanRows(rows *sql.Rows) ([]pathdb.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var result []pathdb.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make(pathdb.Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return result, nil
}

// isUniqueViolation reports whether err is a SQLite uniqueness constraint
// failure.
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// Compile-time check that SQLiteStore implements pathdb.TableStore.
var _ pathdb.TableStore = (*SQLiteStore)(nil)
