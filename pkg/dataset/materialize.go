package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Table is a materialized dataset.
type Table struct {
	Columns []core.Column
	Rows    [][]any
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Value returns a cell by row and column name.
func (t *Table) Value(row int, column string) any {
	i := t.Index(column)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return nil
	}
	return t.Rows[row][i]
}

// Outcomes decodes an outcome column cell of the given row.
func (t *Table) Outcomes(row int, column string) ([]core.Outcome, error) {
	return DecodeOutcomes(t.Value(row, column))
}

// Collect runs the dataset's query and reads every row.
func (d *Dataset) Collect(ctx context.Context) (*Table, error) {
	t, err := d.collect(ctx)
	if err != nil {
		return nil, d.fail(ctx, err)
	}
	return t, nil
}

func (d *Dataset) collect(ctx context.Context) (*Table, error) {
	rows, err := d.engine.Query(ctx, d.query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	t := &Table{Columns: d.Schema()}
	width := len(t.Columns)
	for rows.Next() {
		cells := make([]any, width)
		dest := make([]any, width)
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(t.Rows), err)
		}
		t.Rows = append(t.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return t, nil
}

// Count returns the number of rows in the dataset.
func (d *Dataset) Count(ctx context.Context) (int64, error) {
	n, err := d.count(ctx)
	if err != nil {
		return 0, d.fail(ctx, err)
	}
	return n, nil
}

func (d *Dataset) count(ctx context.Context) (int64, error) {
	rows, err := d.engine.Query(ctx, fmt.Sprintf("SELECT count(*) FROM (%s) AS src", d.query))
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("failed to scan count: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error reading count: %w", err)
	}
	return n, nil
}

// WriteTo copies the dataset to a file. The format follows the extension:
// .parquet, .json/.jsonl or CSV otherwise.
func (d *Dataset) WriteTo(ctx context.Context, path string) error {
	format := "CSV, HEADER"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		format = "PARQUET"
	case ".json", ".jsonl", ".ndjson":
		format = "JSON"
	}
	stmt := fmt.Sprintf("COPY (%s) TO %s (FORMAT %s)", d.query, quoteString(path), format)
	if err := d.engine.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("write %s: %w", path, d.fail(ctx, err))
	}
	return nil
}

// DecodeOutcomes converts an outcome column value, as returned by the
// driver (a list of name/message structs), into outcomes. NULL decodes to
// an empty slice.
func DecodeOutcomes(v any) ([]core.Outcome, error) {
	if v == nil {
		return []core.Outcome{}, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("outcome column: expected list, got %T", v)
	}
	out := make([]core.Outcome, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("outcome %d: expected struct, got %T", i, item)
		}
		name, _ := m["name"].(string)
		msg, _ := m["message"].(string)
		out = append(out, core.Outcome{Name: name, Message: msg})
	}
	return out, nil
}
