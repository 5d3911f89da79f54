package core

// =============================================================================
// Criticality
// =============================================================================

// Criticality decides which outcome column a failed rule is recorded under.
type Criticality int

// Criticality levels for rules.
const (
	// CriticalityError marks a critical problem. Failures land in ErrorsColumn.
	CriticalityError Criticality = iota
	// CriticalityWarn marks a potential problem. Failures land in WarningsColumn.
	CriticalityWarn
)

// String returns the string representation of the criticality.
func (c Criticality) String() string {
	switch c {
	case CriticalityError:
		return "error"
	case CriticalityWarn:
		return "warn"
	default:
		return "unknown"
	}
}

// Valid reports whether c is one of the declared levels.
func (c Criticality) Valid() bool {
	return c == CriticalityError || c == CriticalityWarn
}

// Column returns the synthetic outcome column failures of this level are written to.
func (c Criticality) Column() string {
	if c == CriticalityWarn {
		return WarningsColumn
	}
	return ErrorsColumn
}

// ParseCriticality converts a string to a Criticality value.
// An empty string means the default (error). Matching is exact, so "WARN"
// and " warn" are rejected.
// Returns the criticality and true if valid, or CriticalityError and false if invalid.
func ParseCriticality(s string) (Criticality, bool) {
	switch s {
	case "", "error":
		return CriticalityError, true
	case "warn":
		return CriticalityWarn, true
	default:
		return CriticalityError, false
	}
}

// Criticalities lists every level in output column order.
func Criticalities() []Criticality {
	return []Criticality{CriticalityError, CriticalityWarn}
}
