package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/leapdq/pkg/adapter"
)

// Importing this package registers the "duckdb" adapter type.
func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
