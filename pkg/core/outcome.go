package core

// Synthetic columns appended by annotate mode. The names are fixed so
// downstream tooling can rely on them.
const (
	ErrorsColumn   = "_errors"
	WarningsColumn = "_warnings"
)

// Outcome is one failed rule recorded against one row.
type Outcome struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// OutcomeType is the engine type of ErrorsColumn and WarningsColumn.
const OutcomeType = "STRUCT(name VARCHAR, message VARCHAR)[]"

// IsOutcomeColumn reports whether name is one of the synthetic outcome columns.
func IsOutcomeColumn(name string) bool {
	return name == ErrorsColumn || name == WarningsColumn
}
