// Package rule models data quality rules: a check function bound to
// arguments, a criticality and an identity.
package rule

import (
	"errors"
	"fmt"
	"maps"

	"github.com/leapstack-labs/leapdq/pkg/check"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Binding references a check function and the arguments to call it with.
type Binding struct {
	// Function is the registered name of the check.
	Function string
	// Args maps parameter names to values, including the target column(s).
	Args map[string]any
	// Definition binds the rule directly to a check, skipping name lookup.
	Definition *check.Definition
}

// Rule is one data quality rule.
type Rule struct {
	// ID identifies the rule and names its outcomes. Generated when empty.
	ID          string
	Criticality core.Criticality
	Check       Binding
}

// New returns an error-criticality rule for a registered check function.
func New(function string, args map[string]any) Rule {
	return Rule{Criticality: core.CriticalityError, Check: Binding{Function: function, Args: args}}
}

// Warn returns a copy of r with warn criticality.
func (r Rule) Warn() Rule {
	r.Criticality = core.CriticalityWarn
	return r
}

// Named returns a copy of r with an explicit id.
func (r Rule) Named(id string) Rule {
	r.ID = id
	return r
}

// Function returns the name of the bound check function.
func (r Rule) Function() string {
	if r.Check.Definition != nil && r.Check.Function == "" {
		return r.Check.Definition.Name
	}
	return r.Check.Function
}

// ColumnSet applies one check to several columns, producing one rule per column.
type ColumnSet struct {
	Columns     []string
	Criticality core.Criticality
	Function    string
	// Args are shared by every expanded rule. The column is bound to col_name.
	Args       map[string]any
	Definition *check.Definition
}

// ColumnArg is the argument a column set binds each column to.
const ColumnArg = "col_name"

// Rules expands the set in column order.
func (s ColumnSet) Rules() []Rule {
	rules := make([]Rule, 0, len(s.Columns))
	for _, col := range s.Columns {
		args := make(map[string]any, len(s.Args)+1)
		maps.Copy(args, s.Args)
		args[ColumnArg] = col
		rules = append(rules, Rule{
			Criticality: s.Criticality,
			Check:       Binding{Function: s.Function, Args: args, Definition: s.Definition},
		})
	}
	return rules
}

// BuildRules flattens column sets into a rule list, preserving order.
func BuildRules(sets ...ColumnSet) []Rule {
	var rules []Rule
	for _, s := range sets {
		rules = append(rules, s.Rules()...)
	}
	return rules
}

// Bound is a rule resolved against a check registry and ready to plan.
type Bound struct {
	// Index is the position of the rule's source in the caller's input.
	Index       int
	ID          string
	Explicit    bool
	Criticality core.Criticality
	Function    string
	Definition  *check.Definition
	Args        check.Args
	Columns     []string
	Condition   check.Condition
}

// BindError reports argument problems found while binding one rule.
type BindError struct {
	Args  []check.ArgError
	Build error
}

func (e *BindError) Error() string {
	errs := make([]error, 0, len(e.Args)+1)
	for _, a := range e.Args {
		errs = append(errs, a)
	}
	if e.Build != nil {
		errs = append(errs, e.Build)
	}
	return errors.Join(errs...).Error()
}

// Bind resolves the rule's check function and builds its condition.
// It returns *core.ResolutionError for an unknown function,
// *core.ConfigurationError for an invalid criticality and *BindError for
// argument problems.
func (r Rule) Bind(res check.Resolver, env check.Env) (Bound, error) {
	if !r.Criticality.Valid() {
		return Bound{}, &core.ConfigurationError{
			RuleID:  r.ID,
			Field:   "criticality",
			Message: fmt.Sprintf("invalid criticality %d, expected error or warn", int(r.Criticality)),
		}
	}

	def := r.Check.Definition
	if def == nil {
		var ok bool
		def, ok = res.Lookup(r.Check.Function)
		if !ok {
			return Bound{}, &core.ResolutionError{RuleID: r.ID, Function: r.Check.Function}
		}
	}

	args, argErrs := def.Bind(r.Check.Args)
	if len(argErrs) > 0 {
		return Bound{}, &BindError{Args: argErrs}
	}
	cond, err := def.Build(env, args)
	if err != nil {
		return Bound{}, &BindError{Build: err}
	}

	return Bound{
		ID:          r.ID,
		Explicit:    r.ID != "",
		Criticality: r.Criticality,
		Function:    def.Name,
		Definition:  def,
		Args:        args,
		Columns:     def.Columns(args),
		Condition:   cond,
	}, nil
}
