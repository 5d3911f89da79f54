package core

import (
	"context"
	"database/sql"
)

// Adapter defines the interface that all engine adapters must implement.
// An adapter is the lazy tabular engine datasets are evaluated by.
type Adapter interface {
	// Connect establishes a connection to the engine.
	Connect(ctx context.Context, cfg AdapterConfig) error

	// Close closes the connection.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// Describe binds a query and returns its result schema without scanning rows.
	Describe(ctx context.Context, query string) ([]Column, error)

	// GetTableMetadata retrieves metadata for a table.
	GetTableMetadata(ctx context.Context, table string) (*TableMetadata, error)

	// LoadCSV loads data from a CSV file into a table.
	LoadCSV(ctx context.Context, tableName, filePath string) error
}

// AdapterConfig holds configuration for connecting to an engine.
type AdapterConfig struct {
	Type   string
	Path   string
	Params map[string]any
}

// Column represents a column of a table or query result.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// TableMetadata holds metadata about a table.
type TableMetadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
