package starlark

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/leapdq/pkg/check"
)

const (
	nowParam     = "now"
	columnPrefix = "col_name"
)

// definition turns a Starlark function into a check definition.
func (l *Loader) definition(fn *starlark.Function) (*check.Definition, error) {
	if fn.HasVarargs() || fn.HasKwargs() {
		return nil, fmt.Errorf("function %s: *args and **kwargs are not supported", fn.Name())
	}

	var params []check.Param
	takesNow := false
	for i := 0; i < fn.NumParams(); i++ {
		name, _ := fn.Param(i)
		if name == nowParam {
			takesNow = true
			continue
		}
		p, err := paramFor(name, fn.ParamDefault(i))
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", fn.Name(), err)
		}
		params = append(params, p)
	}

	kind := check.KindExpression
	for _, p := range params {
		if p.Type == check.TypeColumn {
			kind = check.KindColumn
			break
		}
	}

	def := &check.Definition{
		Name:        fn.Name(),
		Description: strings.TrimSpace(fn.Doc()),
		Kind:        kind,
		Params:      params,
	}
	def.Build = func(env check.Env, args check.Args) (check.Condition, error) {
		return l.call(fn, def, takesNow, env, args)
	}
	return def, nil
}

// paramFor declares a parameter from its name and Starlark default value
// (nil when the parameter has none).
func paramFor(name string, dflt starlark.Value) (check.Param, error) {
	p := check.Param{Name: name, Required: dflt == nil}
	if strings.HasPrefix(name, columnPrefix) {
		p.Type = check.TypeColumn
	}
	if dflt == nil {
		return p, nil
	}

	v, err := ToGo(dflt)
	if err != nil {
		return p, fmt.Errorf("parameter %s: %w", name, err)
	}
	p.Default = v
	if p.Type == check.TypeColumn {
		return p, nil
	}
	switch v.(type) {
	case string:
		p.Type = check.TypeString
	case int64:
		p.Type = check.TypeInt
	case float64:
		p.Type = check.TypeNumber
	case bool:
		p.Type = check.TypeBool
	case []any:
		p.Type = check.TypeList
	}
	return p, nil
}

// call runs the function with the bound arguments and reads its result.
func (l *Loader) call(fn *starlark.Function, def *check.Definition, takesNow bool, env check.Env, args check.Args) (check.Condition, error) {
	kwargs := make([]starlark.Tuple, 0, len(def.Params)+1)
	for _, p := range def.Params {
		if !args.Has(p.Name) {
			continue
		}
		v, err := GoToStarlark(args.Value(p.Name))
		if err != nil {
			return check.Condition{}, fmt.Errorf("argument %s: %w", p.Name, err)
		}
		kwargs = append(kwargs, starlark.Tuple{starlark.String(p.Name), v})
	}
	if takesNow {
		now, _ := GoToStarlark(env.Now)
		kwargs = append(kwargs, starlark.Tuple{starlark.String(nowParam), now})
	}

	thread := l.pool.Get("check:" + fn.Name())
	defer l.pool.Put(thread)

	result, err := starlark.Call(thread, fn, nil, kwargs)
	if err != nil {
		return check.Condition{}, fmt.Errorf("%s: %w", fn.Name(), err)
	}
	return conditionFrom(result, def, args)
}

func conditionFrom(result starlark.Value, def *check.Definition, args check.Args) (check.Condition, error) {
	dict, ok := result.(*starlark.Dict)
	if !ok {
		return check.Condition{}, fmt.Errorf("%s must return a dict, got %s", def.Name, result.Type())
	}
	raw, err := ToGo(dict)
	if err != nil {
		return check.Condition{}, fmt.Errorf("%s: %w", def.Name, err)
	}
	m := raw.(map[string]any)

	str := func(key string) (string, error) {
		v, has := m[key]
		if !has || v == nil {
			return "", nil
		}
		s, isStr := v.(string)
		if !isStr {
			return "", fmt.Errorf("%s: result %q must be a string, got %T", def.Name, key, v)
		}
		return s, nil
	}

	cond := check.Condition{}
	if cond.Predicate, err = str("condition"); err != nil {
		return cond, err
	}
	if cond.Predicate == "" {
		return cond, fmt.Errorf("%s: result has no condition", def.Name)
	}

	msgSQL, err := str("message_sql")
	if err != nil {
		return cond, err
	}
	msg, err := str("message")
	if err != nil {
		return cond, err
	}
	switch {
	case msgSQL != "":
		cond.Message = msgSQL
	case msg != "":
		cond.Message = check.QuoteString(msg)
	default:
		cond.Message = check.QuoteString(fmt.Sprintf("Check %s failed", def.Name))
	}

	if cond.Name, err = str("name"); err != nil {
		return cond, err
	}
	if cond.Name == "" {
		cond.Name = def.Name
		if cols := def.Columns(args); len(cols) > 0 {
			cond.Name = cols[0] + "_" + def.Name
		}
	}

	for key := range m {
		switch key {
		case "condition", "message", "message_sql", "name":
		default:
			return cond, fmt.Errorf("%s: unknown result key %q", def.Name, key)
		}
	}
	return cond, nil
}
