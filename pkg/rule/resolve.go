package rule

import (
	"errors"

	"github.com/leapstack-labs/leapdq/pkg/check"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Resolve binds code-defined rules in order and assigns their ids.
//
// An unknown function or criticality fails immediately with
// *core.ResolutionError or *core.ConfigurationError. Argument problems and
// duplicate ids are collected across the whole set and returned together
// as core.ValidationErrors.
func Resolve(rules []Rule, res check.Resolver, env check.Env) ([]Bound, error) {
	bound := make([]Bound, 0, len(rules))
	var errs core.ValidationErrors

	for i, r := range rules {
		b, err := r.Bind(res, env)
		if err != nil {
			var bindErr *BindError
			if errors.As(err, &bindErr) {
				errs = append(errs, bindErr.ValidationErrors(i, r.ID)...)
				continue
			}
			return nil, err
		}
		b.Index = i
		bound = append(bound, b)
	}

	errs = append(errs, AssignIDs(bound)...)
	if len(errs) > 0 {
		return nil, errs
	}
	return bound, nil
}

// ValidationErrors converts e to one validation error per problem.
func (e *BindError) ValidationErrors(index int, ruleID string) []core.ValidationError {
	out := make([]core.ValidationError, 0, len(e.Args)+1)
	for _, a := range e.Args {
		out = append(out, core.ValidationError{
			Index:   index,
			RuleID:  ruleID,
			Field:   "check.arguments." + a.Arg,
			Message: a.Message,
		})
	}
	if e.Build != nil {
		out = append(out, core.ValidationError{
			Index:   index,
			RuleID:  ruleID,
			Field:   "check.arguments",
			Message: e.Build.Error(),
		})
	}
	return out
}
