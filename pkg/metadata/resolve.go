// Package metadata turns rule definitions expressed as loosely typed nested
// mappings (as decoded from YAML or JSON) into bound rules.
//
// Each check is a mapping:
//
//	criticality: error | warn          # optional, defaults to error
//	name: orders_amount_positive       # optional, generated when absent
//	check:
//	  function: is_in_range
//	  arguments: {col_name: amount, min_limit: 0, max_limit: 100}
//
// Arguments may carry col_names instead of col_name to apply the check to
// several columns.
package metadata

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/leapstack-labs/leapdq/pkg/check"
	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/rule"
)

// Field names of the check mapping.
const (
	FieldCriticality = "criticality"
	FieldName        = "name"
	FieldCheck       = "check"
	FieldFunction    = "function"
	FieldArguments   = "arguments"
	ArgColNames      = "col_names"
)

var (
	topLevelFields = []string{FieldCheck, FieldCriticality, FieldName}
	checkFields    = []string{FieldArguments, FieldFunction}
)

// Validate reports every structural and semantic problem in checks without
// evaluating anything. The result is empty when the checks are valid.
func Validate(checks []map[string]any, res check.Resolver) core.ValidationErrors {
	_, errs := Resolve(checks, res, check.Env{})
	return errs
}

// Resolve converts metadata into bound rules. It never stops at the first
// problem: every error found is returned, ordered by check index, alongside
// the rules that did resolve. Callers must not evaluate a partially valid
// set; check len(errs) first.
func Resolve(checks []map[string]any, res check.Resolver, env check.Env) ([]rule.Bound, core.ValidationErrors) {
	var errs core.ValidationErrors
	var bound []rule.Bound

	for i, item := range checks {
		b, itemErrs := resolveOne(i, item, res, env)
		errs = append(errs, itemErrs...)
		bound = append(bound, b...)
	}

	// Explicit ids are compared across every check, including those that
	// failed to resolve. The duplicates AssignIDs finds among resolved rules
	// are a subset of these.
	errs = append(errs, duplicateNames(checks)...)
	_ = rule.AssignIDs(bound)
	sort.SliceStable(errs, func(a, b int) bool { return errs[a].Index < errs[b].Index })
	if len(errs) == 0 {
		return bound, nil
	}
	return bound, errs
}

// resolveOne validates one check: structure first, then the registry, then
// the arguments. It stops early only when the check cannot be bound at all,
// so structural problems and argument problems are reported together.
func resolveOne(index int, item map[string]any, res check.Resolver, env check.Env) ([]rule.Bound, core.ValidationErrors) {
	var errs core.ValidationErrors
	fail := func(id, field, format string, args ...any) {
		errs = append(errs, core.ValidationError{Index: index, RuleID: id, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	for _, key := range unknownKeys(item, topLevelFields) {
		fail("", key, "unknown field")
	}

	id := ""
	if v, ok := item[FieldName]; ok && v != nil {
		s, isStr := v.(string)
		if !isStr || s == "" {
			fail("", FieldName, "must be a non-empty string, got %s", typeName(v))
		} else {
			id = s
		}
	}

	criticality := core.CriticalityError
	if v, ok := item[FieldCriticality]; ok && v != nil {
		s, _ := v.(string)
		c, valid := core.ParseCriticality(s)
		if !valid || s == "" {
			fail(id, FieldCriticality, "invalid criticality %v, expected error or warn", v)
		}
		criticality = c
	}

	block, ok := item[FieldCheck]
	if !ok || block == nil {
		fail(id, FieldCheck, "field is missing")
		return nil, errs
	}
	checkMap, ok := asMap(block)
	if !ok {
		fail(id, FieldCheck, "must be a mapping, got %s", typeName(block))
		return nil, errs
	}
	for _, key := range unknownKeys(checkMap, checkFields) {
		fail(id, FieldCheck+"."+key, "unknown field")
	}

	fnName, ok := checkMap[FieldFunction].(string)
	if !ok || fnName == "" {
		if checkMap[FieldFunction] == nil {
			fail(id, "check.function", "field is missing")
		} else {
			fail(id, "check.function", "must be a string, got %s", typeName(checkMap[FieldFunction]))
		}
		return nil, errs
	}

	args := map[string]any{}
	if v, ok := checkMap[FieldArguments]; ok && v != nil {
		m, isMap := asMap(v)
		if !isMap {
			fail(id, "check.arguments", "must be a mapping, got %s", typeName(v))
			return nil, errs
		}
		args = m
	}

	def, ok := res.Lookup(fnName)
	if !ok {
		fail(id, "check.function", "function %q is not registered", fnName)
		return nil, errs
	}

	columns, fanOut := fanOutColumns(args, def, id, fail)
	if columns == nil {
		return nil, errs
	}

	bound := make([]rule.Bound, 0, max(len(columns), 1))
	for _, col := range columns {
		ruleArgs := args
		if fanOut {
			ruleArgs = maps.Clone(args)
			delete(ruleArgs, ArgColNames)
			ruleArgs[rule.ColumnArg] = col
		}
		r := rule.Rule{
			ID:          id,
			Criticality: criticality,
			Check:       rule.Binding{Function: fnName, Args: ruleArgs, Definition: def},
		}
		b, err := r.Bind(res, env)
		if err != nil {
			var bindErr *rule.BindError
			if errors.As(err, &bindErr) {
				// Every column shares the same argument problems; report them once.
				return nil, append(errs, bindErr.ValidationErrors(index, id)...)
			}
			fail(id, "check", "%v", err)
			return nil, errs
		}
		b.Index = index
		bound = append(bound, b)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return bound, nil
}

// duplicateNames reports every repeated explicit name after its first use.
func duplicateNames(checks []map[string]any) core.ValidationErrors {
	var errs core.ValidationErrors
	seen := make(map[string]bool, len(checks))
	for i, item := range checks {
		name, ok := item[FieldName].(string)
		if !ok || name == "" {
			continue
		}
		if seen[name] {
			errs = append(errs, core.ValidationError{
				Index:   i,
				RuleID:  name,
				Field:   FieldName,
				Message: fmt.Sprintf("duplicate rule id %q", name),
			})
			continue
		}
		seen[name] = true
	}
	return errs
}

// fanOutColumns returns the columns a col_names check expands to, or a
// single empty entry when the check is not a column set.
func fanOutColumns(args map[string]any, def *check.Definition, id string, fail func(id, field, format string, args ...any)) ([]string, bool) {
	raw, ok := args[ArgColNames]
	if !ok {
		return []string{""}, false
	}

	const field = "check.arguments.col_names"
	if p, has := def.Param(rule.ColumnArg); !has || p.Type != check.TypeColumn {
		fail(id, field, "function %s does not take a col_name argument", def.Name)
		return nil, true
	}
	if _, both := args[rule.ColumnArg]; both {
		fail(id, field, "cannot be combined with col_name")
		return nil, true
	}
	if id != "" {
		fail(id, FieldName, "cannot be combined with col_names, each column gets its own id")
		return nil, true
	}

	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		fail(id, field, "must be a non-empty list of column names")
		return nil, true
	}
	cols := make([]string, 0, len(list))
	for i, v := range list {
		s, isStr := v.(string)
		if !isStr || s == "" {
			fail(id, field, "item %d must be a column name, got %s", i, typeName(v))
			return nil, true
		}
		cols = append(cols, s)
	}
	return cols, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func unknownKeys(m map[string]any, known []string) []string {
	var unknown []string
	for k := range m {
		if !slices.Contains(known, k) {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64, float64:
		return "number"
	case []any:
		return "list"
	case map[string]any, map[any]any:
		return "mapping"
	default:
		return fmt.Sprintf("%T", v)
	}
}
