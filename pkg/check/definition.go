// Package check defines check functions: named builders that turn bound
// arguments into a row-level Condition the tabular engine can evaluate.
//
// Built-in checks are registered in the process-wide registry at init time.
// Callers extend or override them with Register, or layer a per-call
// Namespace over the registry with WithNamespace.
package check

import (
	"errors"
	"time"
)

// Kind distinguishes column checks from free-form expression checks.
type Kind int

// Check kinds.
const (
	// KindColumn checks operate on one column (optionally a second one for
	// cross-column comparisons) named by column-typed parameters.
	KindColumn Kind = iota
	// KindExpression checks evaluate an arbitrary boolean expression over the row.
	KindExpression
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindColumn:
		return "column"
	case KindExpression:
		return "expression"
	default:
		return "unknown"
	}
}

// Condition is a check bound to concrete arguments.
//
// Predicate is a SQL boolean expression over the row that is TRUE when the
// row FAILS. A NULL predicate is treated as passing, so every null policy
// must be spelled out in the predicate itself. Message is a SQL VARCHAR
// expression, which lets it embed the offending value.
type Condition struct {
	Predicate string
	Message   string
	Name      string
}

// Env carries evaluation-wide inputs a check may depend on.
type Env struct {
	// Now is the reference "current timestamp" for temporal checks.
	Now time.Time
}

// BuildFunc produces a Condition from bound arguments. It must be pure and
// must not touch data; argument problems are reported as errors.
type BuildFunc func(env Env, args Args) (Condition, error)

// Definition describes a registered check function.
type Definition struct {
	Name        string
	Description string
	Kind        Kind
	Params      []Param
	Build       BuildFunc
}

// Param returns the declared parameter with the given name.
func (d *Definition) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Columns returns the dataset columns named by column-typed arguments, in
// parameter order. These are the rule's target columns.
func (d *Definition) Columns(args Args) []string {
	var cols []string
	for _, p := range d.Params {
		if p.Type != TypeColumn {
			continue
		}
		if name := args.String(p.Name); name != "" {
			cols = append(cols, name)
		}
	}
	return cols
}

// TargetParam returns the name of the first column-typed parameter, or ""
// for expression checks. Column-set fan-out binds each column to it.
func (d *Definition) TargetParam() string {
	for _, p := range d.Params {
		if p.Type == TypeColumn {
			return p.Name
		}
	}
	return ""
}

// Apply binds raw arguments and builds the condition in one step.
func (d *Definition) Apply(env Env, raw map[string]any) (Condition, error) {
	args, errs := d.Bind(raw)
	if len(errs) > 0 {
		joined := make([]error, len(errs))
		for i := range errs {
			joined[i] = errs[i]
		}
		return Condition{}, errors.Join(joined...)
	}
	return d.Build(env, args)
}
