package starlark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestGoToStarlark_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "string", in: "a", want: "a"},
		{name: "int", in: 3, want: int64(3)},
		{name: "float", in: 1.5, want: 1.5},
		{name: "bool", in: true, want: true},
		{name: "nil", in: nil, want: nil},
		{name: "list", in: []any{"x", int64(1)}, want: []any{"x", int64(1)}},
		{name: "strings", in: []string{"a", "b"}, want: []any{"a", "b"}},
		{name: "timestamp", in: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), want: "2024-03-15 12:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sv, err := GoToStarlark(tt.in)
			require.NoError(t, err)
			got, err := ToGo(sv)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := GoToStarlark(struct{}{})
	assert.ErrorContains(t, err, "unsupported type")
}

func TestPredeclared(t *testing.T) {
	thread := &starlark.Thread{Name: "test"}
	v, err := starlark.Eval(thread, "expr", `concat(lit("n="), text("a b"), lit(None))`, Predeclared()) //nolint:staticcheck // SA1019: EvalOptions offers nothing needed here
	require.NoError(t, err)
	s, ok := starlark.AsString(v)
	require.True(t, ok)
	assert.Contains(t, s, `"a b"`)
	assert.Contains(t, s, "'n='")

	v, err = starlark.Eval(thread, "expr", `col('we"ird')`, Predeclared()) //nolint:staticcheck // SA1019: EvalOptions offers nothing needed here
	require.NoError(t, err)
	assert.Equal(t, starlark.String(`"we""ird"`), v)
}

func TestThreadPool(t *testing.T) {
	pool := NewThreadPool(1, nil)
	a := pool.Get("a")
	b := pool.Get("b")
	assert.NotSame(t, a, b)

	pool.Put(a)
	pool.Put(b)
	assert.Equal(t, 1, pool.Size(), "pool keeps at most maxSize threads")

	c := pool.Get("c")
	assert.Same(t, a, c)
	assert.Equal(t, "c", c.Name)
}
