// Package dataset provides an immutable, lazily evaluated table backed by a
// SQL engine. A Dataset is a query plus its schema: every transformation
// returns a new Dataset wrapping the previous query, and rows are only read
// when the dataset is materialized.
package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Engine is the subset of an adapter a Dataset needs.
type Engine interface {
	Exec(ctx context.Context, sql string) error
	Query(ctx context.Context, sql string) (*core.Rows, error)
	Describe(ctx context.Context, query string) ([]core.Column, error)
}

// ErrorHandler inspects a failure raised while materializing a dataset and
// returns the error to report, typically a more specific one.
type ErrorHandler func(ctx context.Context, err error) error

// Dataset is an immutable relation over an Engine.
type Dataset struct {
	engine  Engine
	query   string
	schema  []core.Column
	onError ErrorHandler
}

// FromQuery wraps an arbitrary SELECT. The query is bound (not executed) to
// learn its schema.
func FromQuery(ctx context.Context, eng Engine, query string) (*Dataset, error) {
	schema, err := eng.Describe(ctx, query)
	if err != nil {
		return nil, err
	}
	return &Dataset{engine: eng, query: query, schema: schema}, nil
}

// FromTable wraps a table, optionally schema-qualified.
func FromTable(ctx context.Context, eng Engine, table string) (*Dataset, error) {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = QuoteIdent(p)
	}
	return FromQuery(ctx, eng, "SELECT * FROM "+strings.Join(parts, "."))
}

// FromFile wraps a CSV, Parquet or JSON file, chosen by extension. Remote
// paths (s3://, https://) work when the engine has the matching extension.
func FromFile(ctx context.Context, eng Engine, path string) (*Dataset, error) {
	scan, err := scanFunction(path)
	if err != nil {
		return nil, err
	}
	return FromQuery(ctx, eng, fmt.Sprintf("SELECT * FROM %s(%s)", scan, quoteString(path)))
}

func scanFunction(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(strings.TrimSuffix(path, ".gz"), ".zst")))
	switch ext {
	case ".csv", ".tsv", ".txt":
		return "read_csv_auto", nil
	case ".parquet", ".pq":
		return "read_parquet", nil
	case ".json", ".jsonl", ".ndjson":
		return "read_json_auto", nil
	default:
		return "", fmt.Errorf("unsupported dataset file %q: expected csv, parquet or json", path)
	}
}

// New builds a Dataset from a query and a known schema without binding it.
// Callers are responsible for the schema matching the query.
func New(eng Engine, query string, schema []core.Column) *Dataset {
	return &Dataset{engine: eng, query: query, schema: append([]core.Column(nil), schema...)}
}

// WithErrorHandler returns a copy of the dataset whose materialization
// errors pass through h. Datasets derived from the copy keep the handler.
func (d *Dataset) WithErrorHandler(h ErrorHandler) *Dataset {
	out := *d
	out.onError = h
	return &out
}

func (d *Dataset) derive(query string, schema []core.Column) *Dataset {
	return &Dataset{engine: d.engine, query: query, schema: schema, onError: d.onError}
}

func (d *Dataset) fail(ctx context.Context, err error) error {
	if d.onError == nil || err == nil {
		return err
	}
	return d.onError(ctx, err)
}

// SQL returns the query that produces the dataset.
func (d *Dataset) SQL() string { return d.query }

// Engine returns the engine the dataset is evaluated by.
func (d *Dataset) Engine() Engine { return d.engine }

// Schema returns a copy of the dataset's columns.
func (d *Dataset) Schema() []core.Column {
	return append([]core.Column(nil), d.schema...)
}

// Columns returns the column names in order.
func (d *Dataset) Columns() []string {
	names := make([]string, len(d.schema))
	for i, c := range d.schema {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column.
func (d *Dataset) Column(name string) (core.Column, bool) {
	for _, c := range d.schema {
		if c.Name == name {
			return c, true
		}
	}
	return core.Column{}, false
}

// Expr is a named SQL expression to project as a new column.
type Expr struct {
	Name string
	SQL  string
}

// Projection renders the SELECT that appends exprs to the dataset's columns.
func (d *Dataset) Projection(exprs ...Expr) string {
	items := make([]string, 0, len(exprs)+1)
	items = append(items, "*")
	for _, e := range exprs {
		items = append(items, fmt.Sprintf("%s AS %s", e.SQL, QuoteIdent(e.Name)))
	}
	return fmt.Sprintf("SELECT %s FROM (%s) AS src", strings.Join(items, ", "), d.query)
}

// WithColumns appends computed columns. The new query is bound by the engine,
// so an expression that does not type-check fails here, before any row is read.
func (d *Dataset) WithColumns(ctx context.Context, exprs ...Expr) (*Dataset, error) {
	for _, e := range exprs {
		if _, ok := d.Column(e.Name); ok {
			return nil, fmt.Errorf("column %q already exists", e.Name)
		}
	}
	query := d.Projection(exprs...)
	schema, err := d.engine.Describe(ctx, query)
	if err != nil {
		return nil, err
	}
	return d.derive(query, schema), nil
}

// Filter keeps rows for which predicate is TRUE. The schema is unchanged.
func (d *Dataset) Filter(predicate string) *Dataset {
	return d.derive(fmt.Sprintf("SELECT * FROM (%s) AS src WHERE %s", d.query, predicate), d.schema)
}

// Drop removes columns. Unknown names are ignored.
func (d *Dataset) Drop(names ...string) *Dataset {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := d.Column(n); ok {
			drop[n] = true
		}
	}
	if len(drop) == 0 {
		return d
	}

	var schema []core.Column
	var excluded []string
	for _, c := range d.schema {
		if drop[c.Name] {
			excluded = append(excluded, QuoteIdent(c.Name))
			continue
		}
		c.Position = len(schema) + 1
		schema = append(schema, c)
	}
	return d.derive(fmt.Sprintf("SELECT * EXCLUDE (%s) FROM (%s) AS src", strings.Join(excluded, ", "), d.query), schema)
}

// Select keeps the named columns in the given order.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	schema := make([]core.Column, 0, len(names))
	items := make([]string, 0, len(names))
	for _, n := range names {
		c, ok := d.Column(n)
		if !ok {
			return nil, fmt.Errorf("column %q not found", n)
		}
		c.Position = len(schema) + 1
		schema = append(schema, c)
		items = append(items, QuoteIdent(n))
	}
	return d.derive(fmt.Sprintf("SELECT %s FROM (%s) AS src", strings.Join(items, ", "), d.query), schema), nil
}

// Limit keeps at most n rows.
func (d *Dataset) Limit(n int) *Dataset {
	return d.derive(fmt.Sprintf("SELECT * FROM (%s) AS src LIMIT %d", d.query, n), d.schema)
}

// QuoteIdent quotes a SQL identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
