package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdq/internal/testutil"
	"github.com/leapstack-labs/leapdq/pkg/adapter"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

func connect(t *testing.T, params map[string]any) *Adapter {
	t.Helper()
	adp := New(testutil.NewTestLogger(t))
	require.NoError(t, adp.Connect(context.Background(), core.AdapterConfig{Path: ":memory:", Params: params}))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func TestAdapter_Connect(t *testing.T) {
	t.Run("in-memory", func(t *testing.T) {
		adp := connect(t, nil)
		assert.True(t, adp.IsConnected())
	})

	t.Run("file-based", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dq.duckdb")
		adp := New(nil)
		require.NoError(t, adp.Connect(context.Background(), core.AdapterConfig{Path: path}))
		defer func() { _ = adp.Close() }()

		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("invalid params", func(t *testing.T) {
		adp := New(nil)
		err := adp.Connect(context.Background(), core.AdapterConfig{Params: map[string]any{"bogus": 1}})
		require.Error(t, err)
		assert.False(t, adp.IsConnected())
	})
}

func TestAdapter_NotConnected(t *testing.T) {
	adp := New(nil)
	ctx := context.Background()

	_, err := adp.GetTableMetadata(ctx, "orders")
	assert.ErrorIs(t, err, adapter.ErrNotConnected)
	assert.ErrorIs(t, adp.LoadCSV(ctx, "orders", "orders.csv"), adapter.ErrNotConnected)
}

func TestConnect_WithSettings(t *testing.T) {
	adp := connect(t, map[string]any{"settings": map[string]any{"threads": "2"}})

	rows, err := adp.Query(context.Background(), "SELECT current_setting('threads')")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()
	require.True(t, rows.Next())

	var threads string
	require.NoError(t, rows.Scan(&threads))
	assert.Equal(t, "2", threads)
}

func TestAdapter_LoadCSVAndMetadata(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, nil)

	csvPath := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("id,amount,status\n1,9.5,paid\n2,,open\n"), 0o600))
	require.NoError(t, adp.LoadCSV(ctx, "orders", csvPath))

	meta, err := adp.GetTableMetadata(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, "main", meta.Schema)
	assert.Equal(t, int64(2), meta.RowCount)
	require.Len(t, meta.Columns, 3)
	assert.Equal(t, "amount", meta.Columns[1].Name)
	assert.Equal(t, "DOUBLE", meta.Columns[1].Type)

	_, err = adp.GetTableMetadata(ctx, "missing")
	assert.Error(t, err)
}

func TestAdapter_Describe(t *testing.T) {
	adp := connect(t, nil)
	ctx := context.Background()

	cols, err := adp.Describe(ctx, "SELECT 1::BIGINT AS n, [1, 2] AS xs")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "BIGINT", cols[0].Type)
	assert.Equal(t, "INTEGER[]", cols[1].Type)

	_, err = adp.Describe(ctx, "SELECT missing_column FROM range(3)")
	assert.Error(t, err)
}
