// Package core defines the shared language of the LeapDQ system.
//
// This package contains:
//   - Rule vocabulary (Criticality, Outcome, the synthetic outcome columns)
//   - Service interfaces (Adapter) and the column metadata they return
//   - The error taxonomy shared by validation, resolution and evaluation
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
