package engine

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdq/pkg/adapter"
	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/dataset"
	"github.com/leapstack-labs/leapdq/pkg/rule"
)

func describeRows(cols ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"column_name", "column_type", "null"})
	for _, c := range cols {
		typ := "INTEGER"
		if core.IsOutcomeColumn(c) {
			typ = core.OutcomeType
		}
		rows.AddRow(c, typ, "YES")
	}
	return rows
}

// Annotating must bind once and scan once, with every rule in the same query.
func TestAnnotate_SinglePass(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	eng := &adapter.BaseSQLAdapter{DB: db}
	ds := dataset.New(eng, `SELECT * FROM "src"`, []core.Column{
		{Name: "a", Type: "INTEGER", Position: 1},
		{Name: "b", Type: "INTEGER", Position: 2},
	})

	combined := `(?s)^DESCRIBE SELECT \*, list_filter\(.*'a_is_null'.*\) AS "_errors", list_filter\(.*'b_not_in_range'.*'b_greater_than_limit'.*\) AS "_warnings" FROM \(SELECT \* FROM "src"\) AS src$`
	mock.ExpectQuery(combined).WillReturnRows(describeRows("a", "b", core.ErrorsColumn, core.WarningsColumn))
	mock.ExpectQuery(`(?s)^SELECT \*, list_filter\(.*'a_is_null'.*'b_not_in_range'.*'b_greater_than_limit'.*FROM \(SELECT \* FROM "src"\) AS src$`).
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", core.ErrorsColumn, core.WarningsColumn}).
			AddRow(1, 5, nil, nil))

	rules := []rule.Rule{
		rule.New("is_not_null", map[string]any{"col_name": "a"}),
		rule.New("is_in_range", map[string]any{"col_name": "b", "min_limit": 0, "max_limit": 10}).Warn(),
		rule.New("not_greater_than", map[string]any{"col_name": "b", "limit": 8}).Warn(),
	}
	annotated, err := New(Config{}).Annotate(context.Background(), ds, rules)
	require.NoError(t, err)

	tbl, err := annotated.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotate_EmptyRuleSetRendersTypedEmptyLists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := dataset.New(&adapter.BaseSQLAdapter{DB: db}, `SELECT 1 AS a`, []core.Column{{Name: "a", Type: "INTEGER", Position: 1}})

	mock.ExpectQuery(`CAST\(\[\] AS STRUCT\(name VARCHAR, message VARCHAR\)\[\]\) AS "_errors", CAST\(\[\] AS STRUCT\(name VARCHAR, message VARCHAR\)\[\]\) AS "_warnings"`).
		WillReturnRows(describeRows("a", core.ErrorsColumn, core.WarningsColumn))

	out, err := New(Config{}).Annotate(context.Background(), ds, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", core.ErrorsColumn, core.WarningsColumn}, out.Columns())
	assert.NoError(t, mock.ExpectationsWereMet())
}
