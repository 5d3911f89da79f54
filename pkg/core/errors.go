package core

import (
	"fmt"
	"strings"
)

// =============================================================================
// Validation
// =============================================================================

// ValidationError describes one structural problem in rule metadata.
// Index is the position of the offending check in the input (-1 when unknown).
type ValidationError struct {
	Index   int    `json:"index"`
	RuleID  string `json:"rule_id,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	var b strings.Builder
	if e.Index >= 0 {
		fmt.Fprintf(&b, "check %d", e.Index)
	} else {
		b.WriteString("checks")
	}
	if e.RuleID != "" {
		fmt.Fprintf(&b, " (%s)", e.RuleID)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// ValidationErrors is every problem found in one metadata set, in input order.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return "invalid checks: " + e[0].Error()
	}
	lines := make([]string, 0, len(e)+1)
	lines = append(lines, fmt.Sprintf("invalid checks (%d problems):", len(e)))
	for _, ve := range e {
		lines = append(lines, "  "+ve.Error())
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// Resolution
// =============================================================================

// ResolutionError is returned when a check function name is absent from the
// registry and every namespace layered over it.
type ResolutionError struct {
	RuleID   string
	Function string
}

func (e *ResolutionError) Error() string {
	if e.RuleID != "" {
		return fmt.Sprintf("rule %q: check function %q is not registered", e.RuleID, e.Function)
	}
	return fmt.Sprintf("check function %q is not registered", e.Function)
}

// =============================================================================
// Configuration
// =============================================================================

// ConfigurationError is returned when a rule cannot be applied to a dataset:
// an unknown criticality or a target column missing from the schema.
type ConfigurationError struct {
	RuleID  string
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.RuleID == "" {
		return msg
	}
	return fmt.Sprintf("rule %q: %s", e.RuleID, msg)
}

// =============================================================================
// Evaluation
// =============================================================================

// EvaluationError is returned when a check cannot be applied to concrete data,
// e.g. a malformed expression or a type the engine cannot coerce. It is a
// defect in the rule set, not a data quality finding.
type EvaluationError struct {
	RuleID   string
	Function string
	Err      error
}

func (e *EvaluationError) Error() string {
	if e.RuleID == "" {
		return fmt.Sprintf("evaluation failed: %v", e.Err)
	}
	return fmt.Sprintf("rule %q (function %s) failed to evaluate: %v", e.RuleID, e.Function, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
