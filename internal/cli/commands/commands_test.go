package commands

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/leapdq/internal/config"
	"github.com/leapstack-labs/leapdq/pkg/check"
)

func TestNewApplyCommand(t *testing.T) {
	cmd := NewApplyCommand()

	assert.Equal(t, "apply", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"input", "table", "query", "mode", "valid-out", "quarantine-out", "out", "metrics-file"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewValidateCommand(t *testing.T) {
	cmd := NewValidateCommand()

	assert.Equal(t, "validate [checks-file]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestApplyOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    ApplyOptions
		wantErr string
	}{
		{name: "split", opts: ApplyOptions{Mode: ModeSplit, ValidOut: "v.csv"}},
		{name: "annotate", opts: ApplyOptions{Mode: ModeAnnotate, Out: "a.csv"}},
		{name: "unknown mode", opts: ApplyOptions{Mode: "merge"}, wantErr: "invalid mode"},
		{name: "split with out", opts: ApplyOptions{Mode: ModeSplit, Out: "a.csv"}, wantErr: "annotate mode"},
		{name: "annotate with split outputs", opts: ApplyOptions{Mode: ModeAnnotate, QuarantineOut: "q.csv"}, wantErr: "split mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestResolveMode(t *testing.T) {
	assert.Equal(t, config.OutputText, resolveMode(config.OutputText, new(bytes.Buffer)))
	assert.Equal(t, config.OutputJSON, resolveMode(config.OutputAuto, new(bytes.Buffer)))

	f, err := os.CreateTemp(t.TempDir(), "out")
	assert.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, config.OutputJSON, resolveMode(config.OutputAuto, f), "regular files are not terminals")
}

func TestListFunctions_CustomShadowsBuiltin(t *testing.T) {
	builtins := check.NewRegistry()
	builtins.Register(&check.Definition{Name: "is_not_null", Kind: check.KindColumn, Params: []check.Param{{Name: "col_name", Type: check.TypeColumn, Required: true}}})
	builtins.Register(&check.Definition{Name: "sql_expression", Kind: check.KindExpression})

	custom := check.NewRegistry()
	custom.Register(&check.Definition{Name: "is_not_null", Kind: check.KindColumn, Description: "stricter"})

	infos := listFunctions(builtins, custom)
	assert.Len(t, infos, 2)
	assert.Equal(t, "is_not_null", infos[0].Name)
	assert.Equal(t, "custom", infos[0].Source)
	assert.Equal(t, "stricter", infos[0].Description)
	assert.Equal(t, "builtin", infos[1].Source)
}

func TestFormatParams(t *testing.T) {
	got := formatParams([]paramInfo{
		{Name: "col_name", Type: "column", Required: true},
		{Name: "limit", Type: "number"},
	})
	assert.Equal(t, "col_name: column, limit: number?", got)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", formatValue(nil))
	assert.Equal(t, "[a, 1]", formatValue([]any{"a", 1}))
	assert.Equal(t, "x", formatValue([]byte("x")))
}
