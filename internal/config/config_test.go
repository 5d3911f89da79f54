package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Register the duckdb adapter
	_ "github.com/leapstack-labs/leapdq/pkg/adapters/duckdb"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("checks", "", "")
	fs.String("functions", "", "")
	fs.String("database", "", "")
	fs.StringP("output", "o", "", "")
	fs.String("log-level", "", "")
	fs.String("now", "", "")
	return fs
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultTargetType, cfg.Target.Type)
	assert.Equal(t, DefaultDatabase, cfg.Target.Database)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, DefaultChecksFile), cfg.ChecksFile)
	assert.Empty(t, cfg.FunctionsDir)
	assert.Equal(t, OutputAuto, cfg.Output)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Empty(t, cfg.FileUsed)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
target:
  database: data.duckdb
  params:
    threads: 2
checks_file: rules/checks.yml
functions_dir: functions
output: json
log_level: info
`)
	t.Chdir(dir)

	t.Run("file", func(t *testing.T) {
		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cfg.ProjectRoot, "data.duckdb"), cfg.Target.Database)
		assert.Equal(t, filepath.Join(cfg.ProjectRoot, "rules", "checks.yml"), cfg.ChecksFile)
		assert.Equal(t, filepath.Join(cfg.ProjectRoot, "functions"), cfg.FunctionsDir)
		assert.Equal(t, OutputJSON, cfg.Output)
		assert.EqualValues(t, 2, cfg.Target.Params["threads"])
		assert.NotEmpty(t, cfg.FileUsed)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("LEAPDQ_OUTPUT", "text")
		t.Setenv("LEAPDQ_TARGET__DATABASE", ":memory:")
		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, OutputText, cfg.Output)
		assert.Equal(t, ":memory:", cfg.Target.Database)
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("LEAPDQ_OUTPUT", "text")
		fs := newFlags()
		require.NoError(t, fs.Parse([]string{"-o", "json", "--checks", "other.yml", "--log-level", "debug"}))

		cfg, err := Load("", fs)
		require.NoError(t, err)
		assert.Equal(t, OutputJSON, cfg.Output)
		assert.Equal(t, "debug", cfg.LogLevel)
		abs, _ := filepath.Abs("other.yml")
		assert.Equal(t, abs, cfg.ChecksFile)
	})

	t.Run("unset flags keep lower layers", func(t *testing.T) {
		cfg, err := Load("", newFlags())
		require.NoError(t, err)
		assert.Equal(t, OutputJSON, cfg.Output)
	})
}

func TestLoad_SearchesUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "checks_file: dq/checks.yml\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, "dq", "checks.yml"), cfg.ChecksFile)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, ConfigFileName), cfg.FileUsed)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target:\n  database: ${LEAPDQ_TEST_DB}\n"), 0o600))
	t.Setenv("LEAPDQ_TEST_DB", "/tmp/warehouse.duckdb")
	t.Chdir(t.TempDir())

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/warehouse.duckdb", cfg.Target.Database)
	assert.Equal(t, path, cfg.FileUsed)

	_, err = Load(filepath.Join(dir, "missing.yaml"), nil)
	assert.ErrorContains(t, err, "missing.yaml")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Target:    TargetConfig{Type: "duckdb"},
			Output:    OutputAuto,
			LogLevel:  "warn",
			LogFormat: "text",
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "uppercase type", mutate: func(c *Config) { c.Target.Type = "DuckDB" }},
		{name: "empty type", mutate: func(c *Config) { c.Target.Type = "" }, errSubstr: "target.type is required"},
		{name: "unknown type", mutate: func(c *Config) { c.Target.Type = "oracle" }, errSubstr: "unknown adapter type"},
		{name: "bad output", mutate: func(c *Config) { c.Output = "markdown" }, errSubstr: "invalid output"},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, errSubstr: "invalid log_format"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, errSubstr: "invalid log_level"},
		{name: "bad now", mutate: func(c *Config) { c.Now = "yesterday" }, errSubstr: "invalid now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errSubstr)
		})
	}
}

func TestConfig_Clock(t *testing.T) {
	cfg := Config{Now: "2024-03-15T12:00:00Z"}
	clock, err := cfg.Clock()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), clock())

	cfg.Now = ""
	clock, err = cfg.Clock()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), clock(), time.Minute)
}
