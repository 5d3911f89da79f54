// Package adapter provides the engine adapter contract and shared helpers
// for LeapDQ's evaluation engine.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories.
// Core types (Config, Column, Metadata, Rows) are defined in pkg/core and
// re-exported here via type aliases.
package adapter

import (
	"github.com/leapstack-labs/leapdq/pkg/core"
)

type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows

	// Adapter is an alias for core.Adapter.
	Adapter = core.Adapter
)
