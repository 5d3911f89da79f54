package adapter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdq/pkg/adapter"
	"github.com/leapstack-labs/leapdq/pkg/core"

	_ "github.com/leapstack-labs/leapdq/pkg/adapters/duckdb"
)

func TestDuckDBSelfRegistration(t *testing.T) {
	assert.True(t, adapter.IsRegistered("duckdb"))
	assert.Contains(t, adapter.ListAdapters(), "duckdb")
}

func TestOpen_DuckDB(t *testing.T) {
	ctx := context.Background()
	a, err := adapter.Open(ctx, core.AdapterConfig{Type: "duckdb", Path: ":memory:"}, nil)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	cols, err := a.Describe(ctx, "SELECT 1 AS one, 'x' AS label")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "one", cols[0].Name)
	assert.Equal(t, "INTEGER", cols[0].Type)
	assert.Equal(t, "label", cols[1].Name)
	assert.Equal(t, "VARCHAR", cols[1].Type)
}
