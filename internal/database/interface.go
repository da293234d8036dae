package database

import "context"

// Record is one result row keyed by column label.
type Record map[string]any

// Executor is the only capability the introspector needs: run a read-only
// statement with positional parameters and return every row.
type Executor interface {
	Execute(ctx context.Context, sql string, args ...any) ([]Record, error)
}

// DB is the contract a database driver fulfils for the CLI and the server.
type DB interface {
	Executor

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// Query executes a SQL statement that returns multiple rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// ExecutorFunc adapts a plain function to Executor.
type ExecutorFunc func(ctx context.Context, sql string, args ...any) ([]Record, error)

func (f ExecutorFunc) Execute(ctx context.Context, sql string, args ...any) ([]Record, error) {
	return f(ctx, sql, args...)
}
