package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdq/pkg/check"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

func TestResolve_ColumnFanOut(t *testing.T) {
	checks, err := LoadFile(filepath.Join("testdata", "checks.yml"))
	require.NoError(t, err)

	bound, errs := Resolve(checks, check.Default(), check.Env{})
	require.Empty(t, errs)
	require.Len(t, bound, 4)

	assert.Equal(t, "a_is_null", bound[0].ID)
	assert.Equal(t, "b_is_null", bound[1].ID)
	assert.Equal(t, core.CriticalityWarn, bound[0].Criticality)
	assert.Equal(t, 0, bound[1].Index)

	assert.Equal(t, "b_small", bound[2].ID)
	assert.True(t, bound[2].Explicit)
	assert.Equal(t, core.CriticalityError, bound[2].Criticality)

	assert.Equal(t, "a___b", bound[3].ID)
	assert.Equal(t, 2, bound[3].Index)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	checks := []map[string]any{
		{"check": map[string]any{"function": "nope", "arguments": map[string]any{"col_name": "a"}}},
		{"check": map[string]any{"function": "is_in_range", "arguments": map[string]any{"col_name": "b", "min_limit": 0}}},
		{"name": "r", "check": map[string]any{"function": "is_not_null", "arguments": map[string]any{"col_name": "a"}}},
		{"name": "r", "check": map[string]any{"function": "is_not_null", "arguments": map[string]any{"col_name": "b"}}},
	}

	errs := Validate(checks, check.Default())
	require.Len(t, errs, 3)
	assert.Equal(t, []int{0, 1, 3}, []int{errs[0].Index, errs[1].Index, errs[2].Index})
	assert.Equal(t, "check.function", errs[0].Field)
	assert.Equal(t, "check.arguments.max_limit", errs[1].Field)
	assert.Equal(t, FieldName, errs[2].Field)
}

func TestValidate_Structure(t *testing.T) {
	notNull := map[string]any{"function": "is_not_null", "arguments": map[string]any{"col_name": "a"}}

	tests := []struct {
		name    string
		check   map[string]any
		field   string
		message string
	}{
		{
			name:    "missing check block",
			check:   map[string]any{"criticality": "warn"},
			field:   "check",
			message: "field is missing",
		},
		{
			name:    "check block not a mapping",
			check:   map[string]any{"check": "is_not_null"},
			field:   "check",
			message: "must be a mapping, got string",
		},
		{
			name:    "missing function",
			check:   map[string]any{"check": map[string]any{"arguments": map[string]any{}}},
			field:   "check.function",
			message: "field is missing",
		},
		{
			name:    "function not a string",
			check:   map[string]any{"check": map[string]any{"function": 3}},
			field:   "check.function",
			message: "must be a string, got number",
		},
		{
			name:    "arguments not a mapping",
			check:   map[string]any{"check": map[string]any{"function": "is_not_null", "arguments": []any{"a"}}},
			field:   "check.arguments",
			message: "must be a mapping, got list",
		},
		{
			name:    "invalid criticality",
			check:   map[string]any{"criticality": "fatal", "check": notNull},
			field:   "criticality",
			message: "invalid criticality fatal, expected error or warn",
		},
		{
			name:    "unknown check key",
			check:   map[string]any{"check": map[string]any{"function": "is_not_null", "arguments": map[string]any{"col_name": "a"}, "args": map[string]any{}}},
			field:   "check.args",
			message: "unknown field",
		},
		{
			name:    "empty name",
			check:   map[string]any{"name": "", "check": notNull},
			field:   "name",
			message: "must be a non-empty string, got string",
		},
		{
			name:    "unknown argument",
			check:   map[string]any{"check": map[string]any{"function": "is_not_null", "arguments": map[string]any{"col_name": "a", "column": "b"}}},
			field:   "check.arguments.column",
			message: "unknown argument for is_not_null",
		},
		{
			name:    "col_names with col_name",
			check:   map[string]any{"check": map[string]any{"function": "is_not_null", "arguments": map[string]any{"col_name": "a", "col_names": []any{"b"}}}},
			field:   "check.arguments.col_names",
			message: "cannot be combined with col_name",
		},
		{
			name:    "col_names with name",
			check:   map[string]any{"name": "x", "check": map[string]any{"function": "is_not_null", "arguments": map[string]any{"col_names": []any{"a"}}}},
			field:   "name",
			message: "cannot be combined with col_names, each column gets its own id",
		},
		{
			name:    "col_names empty",
			check:   map[string]any{"check": map[string]any{"function": "is_not_null", "arguments": map[string]any{"col_names": []any{}}}},
			field:   "check.arguments.col_names",
			message: "must be a non-empty list of column names",
		},
		{
			name:    "col_names on expression check",
			check:   map[string]any{"check": map[string]any{"function": "sql_expression", "arguments": map[string]any{"col_names": []any{"a"}, "expression": "a > 1"}}},
			field:   "check.arguments.col_names",
			message: "function sql_expression does not take a col_name argument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate([]map[string]any{tt.check}, check.Default())
			require.Len(t, errs, 1, errs.Error())
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.message, errs[0].Message)
			assert.Equal(t, 0, errs[0].Index)
		})
	}
}

func TestValidate_StructureWithArgumentErrors(t *testing.T) {
	checks := []map[string]any{{
		"criticality": "fatal",
		"check":       map[string]any{"function": "is_in_range", "arguments": map[string]any{"col_name": "b"}},
	}}

	errs := Validate(checks, check.Default())
	require.Len(t, errs, 3, errs.Error())

	fields := []string{errs[0].Field, errs[1].Field, errs[2].Field}
	assert.Equal(t, "criticality", fields[0])
	assert.ElementsMatch(t, []string{"check.arguments.min_limit", "check.arguments.max_limit"}, fields[1:])
	for _, e := range errs {
		assert.Equal(t, 0, e.Index)
	}
}

func TestValidate_DuplicateNameOnFailingCheck(t *testing.T) {
	checks := []map[string]any{
		{"name": "x", "check": map[string]any{"function": "nope"}},
		{"name": "x", "check": map[string]any{"function": "is_not_null", "arguments": map[string]any{"col_name": "a"}}},
	}

	errs := Validate(checks, check.Default())
	require.Len(t, errs, 2, errs.Error())

	assert.Equal(t, 0, errs[0].Index)
	assert.Equal(t, "check.function", errs[0].Field)
	assert.Equal(t, `function "nope" is not registered`, errs[0].Message)

	assert.Equal(t, 1, errs[1].Index)
	assert.Equal(t, "x", errs[1].RuleID)
	assert.Equal(t, FieldName, errs[1].Field)
	assert.Equal(t, `duplicate rule id "x"`, errs[1].Message)
}

func TestValidate_DuplicateNameReportedOnce(t *testing.T) {
	checks := []map[string]any{
		{"name": "x", "check": map[string]any{"function": "is_not_null", "arguments": map[string]any{"col_name": "a"}}},
		{"name": "x", "check": map[string]any{"function": "is_not_null", "arguments": map[string]any{"col_name": "b"}}},
		{"name": "x", "criticality": "warn", "check": map[string]any{"function": "is_not_null", "arguments": map[string]any{"col_name": "c"}}},
	}

	errs := Validate(checks, check.Default())
	require.Len(t, errs, 2, errs.Error())
	assert.Equal(t, []int{1, 2}, []int{errs[0].Index, errs[1].Index})
}

func TestValidate_Golden(t *testing.T) {
	checks, err := LoadFile(filepath.Join("testdata", "invalid_checks.yml"))
	require.NoError(t, err)

	errs := Validate(checks, check.Default())
	require.NotEmpty(t, errs)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "invalid_checks", []byte(errs.Error()+"\n"))
}

func TestValidate_EmptyIsValid(t *testing.T) {
	assert.Empty(t, Validate(nil, check.Default()))
	assert.Empty(t, Validate([]map[string]any{}, check.Default()))
}

func TestLoadFile(t *testing.T) {
	t.Run("json with inline mappings", func(t *testing.T) {
		checks, err := LoadFile(filepath.Join("testdata", "checks.json"))
		require.NoError(t, err)
		require.Len(t, checks, 2)

		block, ok := checks[0]["check"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "is_not_null", block["function"])

		args := checks[1]["check"].(map[string]any)["arguments"].(map[string]any)
		assert.Equal(t, int64(1), args["min_limit"])
		assert.InDelta(t, 2.5, args["max_limit"], 0.0001)

		assert.Empty(t, Validate(checks, check.Default()))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing")
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := LoadFile("")
		assert.Error(t, err)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := LoadFile("checks.toml")
		assert.ErrorContains(t, err, "unsupported checks file")
	})

	t.Run("document is not a list", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "checks.yaml")
		require.NoError(t, os.WriteFile(path, []byte("check: {function: is_not_null}\n"), 0o600))
		_, err := LoadFile(path)
		assert.ErrorContains(t, err, "checks must be a list, got mapping")
	})

	t.Run("empty document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "checks.yaml")
		require.NoError(t, os.WriteFile(path, nil, 0o600))
		checks, err := LoadFile(path)
		require.NoError(t, err)
		assert.Empty(t, checks)
	})
}
