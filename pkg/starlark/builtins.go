package starlark

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/leapdq/pkg/check"
)

// timestampLayout matches the layout of timestamp literals in the engine.
const timestampLayout = "2006-01-02 15:04:05.999999"

// Predeclared returns the globals available to check function files:
//
//	col(name)        quoted column reference
//	lit(value)       SQL literal for a string, number, bool, None or list
//	text(name)       the column's value cast to text, for messages
//	concat(*exprs)   SQL string concatenation of expressions
func Predeclared() starlark.StringDict {
	return starlark.StringDict{
		"col":    starlark.NewBuiltin("col", colBuiltin),
		"lit":    starlark.NewBuiltin("lit", litBuiltin),
		"text":   starlark.NewBuiltin("text", textBuiltin),
		"concat": starlark.NewBuiltin("concat", concatBuiltin),
	}
}

func colBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	return starlark.String(check.QuoteIdent(name)), nil
}

func textBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	return starlark.String(check.ValueText(name)), nil
}

func litBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	gv, err := ToGo(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	s, err := check.Literal(gv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.String(s), nil
}

func concatBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	parts := make([]string, len(args))
	for i, a := range args {
		s, ok := starlark.AsString(a)
		if !ok {
			return nil, fmt.Errorf("%s: argument %d must be a string, got %s", b.Name(), i+1, a.Type())
		}
		parts[i] = s
	}
	return starlark.String(check.Concat(parts...)), nil
}
