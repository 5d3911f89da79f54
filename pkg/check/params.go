package check

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// ParamType is the declared type of a check argument.
type ParamType int

// Parameter types. Values decoded from YAML or JSON are normalized on bind:
// integers become int64, other numbers float64, timestamps time.Time and
// lists []any.
const (
	TypeAny ParamType = iota
	// TypeColumn is a string naming a dataset column.
	TypeColumn
	TypeString
	TypeInt
	TypeNumber
	TypeBool
	// TypeScalar is a number, string or timestamp compared against a column.
	TypeScalar
	TypeTimestamp
	// TypeList is a non-empty list of scalars.
	TypeList
)

// String returns the string representation of the type.
func (t ParamType) String() string {
	switch t {
	case TypeColumn:
		return "column"
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeScalar:
		return "scalar"
	case TypeTimestamp:
		return "timestamp"
	case TypeList:
		return "list"
	default:
		return "any"
	}
}

// Param declares one argument of a check function.
type Param struct {
	Name     string
	Type     ParamType
	Required bool
	Default  any
	Doc      string
}

// ArgError describes one problem with one argument.
type ArgError struct {
	Arg     string
	Message string
}

func (e ArgError) Error() string {
	return fmt.Sprintf("argument %q: %s", e.Arg, e.Message)
}

// Bind checks raw arguments against the declared parameters and returns
// the normalized arguments with defaults applied. Every problem is
// reported: unknown keys first (sorted), then parameters in declaration order.
func (d *Definition) Bind(raw map[string]any) (Args, []ArgError) {
	var errs []ArgError

	unknown := make([]string, 0)
	for key := range raw {
		if _, ok := d.Param(key); !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errs = append(errs, ArgError{Arg: key, Message: fmt.Sprintf("unknown argument for %s", d.Name)})
	}

	args := make(Args, len(d.Params))
	for _, p := range d.Params {
		v, ok := raw[p.Name]
		if !ok || v == nil {
			if p.Required {
				errs = append(errs, ArgError{Arg: p.Name, Message: "missing required argument"})
			} else if p.Default != nil {
				args[p.Name] = p.Default
			}
			continue
		}
		nv, err := normalize(p.Type, v)
		if err != nil {
			errs = append(errs, ArgError{Arg: p.Name, Message: err.Error()})
			continue
		}
		args[p.Name] = nv
	}
	return args, errs
}

func normalize(t ParamType, v any) (any, error) {
	switch t {
	case TypeColumn:
		s, ok := v.(string)
		if !ok {
			return nil, typeError(t, v)
		}
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("column name must not be empty")
		}
		return s, nil
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, typeError(t, v)
		}
		return s, nil
	case TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, typeError(t, v)
		}
		return b, nil
	case TypeInt:
		n, ok := toInt(v)
		if !ok {
			return nil, typeError(t, v)
		}
		return n, nil
	case TypeNumber:
		n, ok := toNumber(v)
		if !ok {
			return nil, typeError(t, v)
		}
		return n, nil
	case TypeTimestamp:
		ts, ok := toTime(v)
		if !ok {
			return nil, typeError(t, v)
		}
		return ts, nil
	case TypeScalar:
		return toScalar(v)
	case TypeList:
		return toList(v)
	default:
		return v, nil
	}
}

func typeError(t ParamType, v any) error {
	return fmt.Errorf("expected %s, got %T", t, v)
}

// toInt accepts any integer type and integral floats (JSON numbers decode as float64).
func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true //nolint:gosec // argument sizes are small
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return toInt(float64(n))
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.Abs(n) > 1<<53 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

// toNumber returns an int64 for integral values and a float64 otherwise.
func toNumber(v any) (any, bool) {
	if i, ok := toInt(v); ok {
		return i, true
	}
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, false
		}
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return nil, false
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

func toScalar(v any) (any, error) {
	switch s := v.(type) {
	case string, time.Time, bool:
		return s, nil
	}
	if n, ok := toNumber(v); ok {
		return n, nil
	}
	return nil, typeError(TypeScalar, v)
}

func toList(v any) ([]any, error) {
	var items []any
	switch l := v.(type) {
	case []any:
		items = l
	case []string:
		for _, s := range l {
			items = append(items, s)
		}
	case []int:
		for _, n := range l {
			items = append(items, n)
		}
	case []int64:
		for _, n := range l {
			items = append(items, n)
		}
	case []float64:
		for _, n := range l {
			items = append(items, n)
		}
	default:
		return nil, typeError(TypeList, v)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("list must not be empty")
	}
	out := make([]any, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("list item %d is null", i)
		}
		s, err := toScalar(item)
		if err != nil {
			return nil, fmt.Errorf("list item %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// Args holds normalized arguments produced by Bind.
type Args map[string]any

// Has reports whether the argument is set (given or defaulted).
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Value returns the raw argument value.
func (a Args) Value(name string) any {
	return a[name]
}

// String returns a string argument, or "".
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns an integer argument, or 0.
func (a Args) Int(name string) int64 {
	n, _ := toInt(a[name])
	return n
}

// Bool returns a bool argument, or false.
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// List returns a list argument, or nil.
func (a Args) List(name string) []any {
	l, _ := a[name].([]any)
	return l
}

// Time returns a timestamp argument and whether it was set.
func (a Args) Time(name string) (time.Time, bool) {
	t, ok := a[name].(time.Time)
	return t, ok
}
