// Package config loads leapdq configuration.
//
// Values are layered, highest last: built-in defaults, leapdq.yaml (found in
// the working directory or above it), LEAPDQ_ environment variables and
// explicitly set command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// TargetConfig holds the engine connection.
type TargetConfig struct {
	Type     string `koanf:"type"`     // duckdb
	Database string `koanf:"database"` // file path or :memory:

	// Params holds adapter-specific configuration (e.g., DuckDB extensions, secrets, settings)
	Params map[string]any `koanf:"params"`
}

// AdapterConfig converts the target to the adapter configuration.
func (t TargetConfig) AdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{Type: t.Type, Path: t.Database, Params: t.Params}
}

// Config holds all configuration options.
type Config struct {
	Target       TargetConfig `koanf:"target"`
	ChecksFile   string       `koanf:"checks_file"`
	FunctionsDir string       `koanf:"functions_dir"`
	Output       string       `koanf:"output"`
	LogLevel     string       `koanf:"log_level"`
	LogFormat    string       `koanf:"log_format"`
	// Now fixes the reference timestamp of temporal checks (RFC 3339).
	Now string `koanf:"now"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
	// FileUsed is the config file that was loaded, if any.
	FileUsed string `koanf:"-"`
}

// Clock returns the reference clock: fixed when Now is set, time.Now otherwise.
func (c *Config) Clock() (func() time.Time, error) {
	if c.Now == "" {
		return time.Now, nil
	}
	t, err := time.Parse(time.RFC3339, c.Now)
	if err != nil {
		return nil, fmt.Errorf("invalid now %q: expected RFC 3339 timestamp", c.Now)
	}
	return func() time.Time { return t }, nil
}
