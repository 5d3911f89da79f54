package check

import (
	"fmt"
	"regexp"
	"time"
)

// colParam is the target column shared by every column check.
var colParam = Param{Name: "col_name", Type: TypeColumn, Required: true, Doc: "column to check"}

func init() {
	for _, def := range builtins() {
		Register(def)
	}
}

// builtins returns fresh definitions of the built-in checks.
func builtins() []*Definition {
	return []*Definition{
		{
			Name:        "is_not_null",
			Description: "Fails when the value is null.",
			Params:      []Param{colParam},
			Build: func(_ Env, a Args) (Condition, error) {
				col := a.String("col_name")
				return Condition{
					Predicate: QuoteIdent(col) + " IS NULL",
					Message:   QuoteString(fmt.Sprintf("Column %s is null", col)),
					Name:      col + "_is_null",
				}, nil
			},
		},
		{
			Name:        "is_not_empty",
			Description: "Fails when the value is an empty string. Null is not empty.",
			Params:      []Param{colParam},
			Build: func(_ Env, a Args) (Condition, error) {
				col := a.String("col_name")
				return Condition{
					Predicate: fmt.Sprintf("%s IS NOT NULL AND %s = ''", QuoteIdent(col), ValueText(col)),
					Message:   QuoteString(fmt.Sprintf("Column %s is empty", col)),
					Name:      col + "_is_empty",
				}, nil
			},
		},
		{
			Name:        "is_not_null_and_not_empty",
			Description: "Fails when the value is null or an empty string, optionally after trimming whitespace.",
			Params: []Param{
				colParam,
				{Name: "trim_strings", Type: TypeBool, Default: false, Doc: "trim whitespace before the empty test"},
			},
			Build: func(_ Env, a Args) (Condition, error) {
				col := a.String("col_name")
				text := ValueText(col)
				if a.Bool("trim_strings") {
					text = "trim(" + text + ")"
				}
				return Condition{
					Predicate: fmt.Sprintf("%s IS NULL OR %s = ''", QuoteIdent(col), text),
					Message:   QuoteString(fmt.Sprintf("Column %s is null or empty", col)),
					Name:      col + "_is_null_or_empty",
				}, nil
			},
		},
		{
			Name:        "value_is_in_list",
			Description: "Fails when a non-null value is not in the allowed list. Null is not flagged.",
			Params: []Param{
				colParam,
				{Name: "allowed", Type: TypeList, Required: true, Doc: "allowed values"},
			},
			Build: func(_ Env, a Args) (Condition, error) {
				col := a.String("col_name")
				in, err := InList(a.List("allowed"))
				if err != nil {
					return Condition{}, err
				}
				return Condition{
					Predicate: fmt.Sprintf("%s IS NOT NULL AND NOT COALESCE(%s IN %s, FALSE)", QuoteIdent(col), QuoteIdent(col), in),
					Message: Concat(QuoteString("Value "), ValueText(col),
						QuoteString(" is not in the allowed list: "+Display(a.List("allowed")))),
					Name: col + "_value_is_not_in_the_list",
				}, nil
			},
		},
		{
			Name:        "value_is_not_null_and_is_in_list",
			Description: "Fails when the value is null or not in the allowed list.",
			Params: []Param{
				colParam,
				{Name: "allowed", Type: TypeList, Required: true, Doc: "allowed values"},
			},
			Build: func(_ Env, a Args) (Condition, error) {
				col := a.String("col_name")
				in, err := InList(a.List("allowed"))
				if err != nil {
					return Condition{}, err
				}
				return Condition{
					Predicate: fmt.Sprintf("%s IS NULL OR NOT COALESCE(%s IN %s, FALSE)", QuoteIdent(col), QuoteIdent(col), in),
					Message: Concat(QuoteString("Value "), "COALESCE("+ValueText(col)+", 'null')",
						QuoteString(" is null or not in the allowed list: "+Display(a.List("allowed")))),
					Name: col + "_value_is_null_or_not_in_the_list",
				}, nil
			},
		},
		rangeCheck("is_in_range", "Fails when a non-null value is outside [min_limit, max_limit].", false),
		rangeCheck("is_not_in_range", "Fails when a non-null value is inside [min_limit, max_limit].", true),
		limitCheck("not_less_than", "<", "less than limit", "_less_than_limit"),
		limitCheck("not_greater_than", ">", "greater than limit", "_greater_than_limit"),
		{
			Name:        "is_not_in_future",
			Description: "Fails when the value is later than the current timestamp plus offset seconds.",
			Params: []Param{
				colParam,
				{Name: "offset", Type: TypeInt, Default: int64(0), Doc: "seconds added to the current timestamp"},
				{Name: "curr_timestamp", Type: TypeTimestamp, Doc: "reference timestamp, defaults to the evaluation clock"},
			},
			Build: func(env Env, a Args) (Condition, error) {
				col := a.String("col_name")
				bound := referenceTime(env, a, "curr_timestamp").Add(time.Duration(a.Int("offset")) * time.Second)
				lit, _ := Literal(bound)
				return Condition{
					Predicate: fmt.Sprintf("%s IS NOT NULL AND %s > %s", QuoteIdent(col), QuoteIdent(col), lit),
					Message: Concat(QuoteString("Value "), ValueText(col),
						QuoteString(" is greater than time: "+Display(bound))),
					Name: col + "_in_future",
				}, nil
			},
		},
		{
			Name:        "is_not_in_near_future",
			Description: "Fails when the value is after the current timestamp and at most offset seconds later.",
			Params: []Param{
				colParam,
				{Name: "offset", Type: TypeInt, Default: int64(0), Doc: "width of the near-future window in seconds"},
				{Name: "curr_timestamp", Type: TypeTimestamp, Doc: "reference timestamp, defaults to the evaluation clock"},
			},
			Build: func(env Env, a Args) (Condition, error) {
				col := a.String("col_name")
				now := referenceTime(env, a, "curr_timestamp")
				bound := now.Add(time.Duration(a.Int("offset")) * time.Second)
				nowLit, _ := Literal(now)
				boundLit, _ := Literal(bound)
				c := QuoteIdent(col)
				return Condition{
					Predicate: fmt.Sprintf("%s IS NOT NULL AND %s > %s AND %s <= %s", c, c, nowLit, c, boundLit),
					Message: Concat(QuoteString("Value "), ValueText(col),
						QuoteString(" is greater than "+Display(now)+" and less than or equal to "+Display(bound))),
					Name: col + "_in_near_future",
				}, nil
			},
		},
		{
			Name:        "is_older_than_n_days",
			Description: "Fails when the date is fewer than days days before the current date.",
			Params: []Param{
				colParam,
				{Name: "days", Type: TypeInt, Required: true, Doc: "minimum age in days"},
				{Name: "curr_date", Type: TypeTimestamp, Doc: "reference date, defaults to the evaluation clock"},
			},
			Build: func(env Env, a Args) (Condition, error) {
				col := a.String("col_name")
				today := referenceTime(env, a, "curr_date").UTC().Format(time.DateOnly)
				return Condition{
					Predicate: fmt.Sprintf("date_diff('day', CAST(%s AS DATE), DATE %s) < %d",
						QuoteIdent(col), QuoteString(today), a.Int("days")),
					Message: Concat(QuoteString(fmt.Sprintf("Value of %s: '", col)), ValueText(col),
						QuoteString(fmt.Sprintf("' is less than %d days before current date: %s", a.Int("days"), today))),
					Name: fmt.Sprintf("%s_not_older_than_%d_days", col, a.Int("days")),
				}, nil
			},
		},
		{
			Name:        "is_older_than_col2_for_n_days",
			Description: "Fails when col_name1 is fewer than days days before col_name2.",
			Params: []Param{
				{Name: "col_name1", Type: TypeColumn, Required: true, Doc: "column expected to be older"},
				{Name: "col_name2", Type: TypeColumn, Required: true, Doc: "column expected to be newer"},
				{Name: "days", Type: TypeInt, Required: true, Doc: "minimum gap in days"},
			},
			Build: func(_ Env, a Args) (Condition, error) {
				col1, col2 := a.String("col_name1"), a.String("col_name2")
				return Condition{
					Predicate: fmt.Sprintf("date_diff('day', CAST(%s AS DATE), CAST(%s AS DATE)) < %d",
						QuoteIdent(col1), QuoteIdent(col2), a.Int("days")),
					Message: Concat(QuoteString(fmt.Sprintf("Value of %s: '", col1)), ValueText(col1),
						QuoteString(fmt.Sprintf("' is less than %d days before value of %s: '", a.Int("days"), col2)),
						ValueText(col2), "''''"),
					Name: fmt.Sprintf("%s_not_older_than_%s_for_%d_days", col1, col2, a.Int("days")),
				}, nil
			},
		},
		{
			Name:        "regex_match",
			Description: "Fails when a non-null value does not match regex, or does match when negate is set.",
			Params: []Param{
				colParam,
				{Name: "regex", Type: TypeString, Required: true, Doc: "RE2 pattern, matched anywhere in the value"},
				{Name: "negate", Type: TypeBool, Default: false, Doc: "fail on match instead"},
			},
			Build: func(_ Env, a Args) (Condition, error) {
				col, pattern := a.String("col_name"), a.String("regex")
				if _, err := regexp.Compile(pattern); err != nil {
					return Condition{}, fmt.Errorf("invalid regex: %w", err)
				}
				match := fmt.Sprintf("regexp_matches(%s, %s)", ValueText(col), QuoteString(pattern))
				verb := "is not matching"
				if a.Bool("negate") {
					verb = "is matching"
				} else {
					match = "NOT " + match
				}
				return Condition{
					Predicate: fmt.Sprintf("%s IS NOT NULL AND %s", QuoteIdent(col), match),
					Message:   QuoteString(fmt.Sprintf("Column %s %s regex", col, verb)),
					Name:      col + "_regex_match",
				}, nil
			},
		},
		{
			Name:        "sql_expression",
			Kind:        KindExpression,
			Description: "Fails when the boolean expression is true for the row, or false when negate is set. Null is not flagged.",
			Params: []Param{
				{Name: "expression", Type: TypeString, Required: true, Doc: "SQL boolean expression over the row"},
				{Name: "msg", Type: TypeString, Doc: "failure message"},
				{Name: "name", Type: TypeString, Doc: "outcome name, derived from the expression when empty"},
				{Name: "negate", Type: TypeBool, Default: false, Doc: "fail when the expression is false"},
			},
			Build: buildExpression,
		},
		{
			Name:        "is_not_null_and_not_empty_array",
			Description: "Fails when the array is null or has no elements.",
			Params:      []Param{colParam},
			Build: func(_ Env, a Args) (Condition, error) {
				col := a.String("col_name")
				return Condition{
					Predicate: fmt.Sprintf("%s IS NULL OR len(%s) = 0", QuoteIdent(col), QuoteIdent(col)),
					Message:   QuoteString(fmt.Sprintf("Column %s is null or empty array", col)),
					Name:      col + "_is_null_or_empty_array",
				}, nil
			},
		},
	}
}

func rangeCheck(name, description string, inside bool) *Definition {
	return &Definition{
		Name:        name,
		Description: description,
		Params: []Param{
			colParam,
			{Name: "min_limit", Type: TypeScalar, Required: true, Doc: "inclusive lower bound"},
			{Name: "max_limit", Type: TypeScalar, Required: true, Doc: "inclusive upper bound"},
		},
		Build: func(_ Env, a Args) (Condition, error) {
			col := a.String("col_name")
			lo, hi := a.Value("min_limit"), a.Value("max_limit")
			if lessThan(hi, lo) {
				return Condition{}, fmt.Errorf("min_limit %s is greater than max_limit %s", Display(lo), Display(hi))
			}
			loLit, err := Literal(lo)
			if err != nil {
				return Condition{}, err
			}
			hiLit, err := Literal(hi)
			if err != nil {
				return Condition{}, err
			}
			c := QuoteIdent(col)
			bounds := fmt.Sprintf("[ %s , %s ]", Display(lo), Display(hi))
			if inside {
				return Condition{
					Predicate: fmt.Sprintf("%s IS NOT NULL AND %s >= %s AND %s <= %s", c, c, loLit, c, hiLit),
					Message:   Concat(QuoteString("Value "), ValueText(col), QuoteString(" in range: "+bounds)),
					Name:      col + "_in_range",
				}, nil
			}
			return Condition{
				Predicate: fmt.Sprintf("%s IS NOT NULL AND (%s < %s OR %s > %s)", c, c, loLit, c, hiLit),
				Message:   Concat(QuoteString("Value "), ValueText(col), QuoteString(" not in range: "+bounds)),
				Name:      col + "_not_in_range",
			}, nil
		},
	}
}

func limitCheck(name, op, phrase, suffix string) *Definition {
	return &Definition{
		Name:        name,
		Description: fmt.Sprintf("Fails when a non-null value is %s.", phrase),
		Params: []Param{
			colParam,
			{Name: "limit", Type: TypeScalar, Required: true, Doc: "inclusive limit"},
		},
		Build: func(_ Env, a Args) (Condition, error) {
			col := a.String("col_name")
			lit, err := Literal(a.Value("limit"))
			if err != nil {
				return Condition{}, err
			}
			c := QuoteIdent(col)
			return Condition{
				Predicate: fmt.Sprintf("%s IS NOT NULL AND %s %s %s", c, c, op, lit),
				Message: Concat(QuoteString("Value "), ValueText(col),
					QuoteString(fmt.Sprintf(" is %s: %s", phrase, Display(a.Value("limit"))))),
				Name: col + suffix,
			}, nil
		},
	}
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

func buildExpression(_ Env, a Args) (Condition, error) {
	expr := a.String("expression")
	if expr == "" {
		return Condition{}, fmt.Errorf("expression must not be empty")
	}
	name := a.String("name")
	if name == "" {
		name = nonAlnum.ReplaceAllString(expr, "_")
	}
	msg := a.String("msg")

	var predicate string
	if a.Bool("negate") {
		predicate = fmt.Sprintf("NOT COALESCE((%s), TRUE)", expr)
		if msg == "" {
			msg = "Value does not match expression: " + expr
		}
	} else {
		predicate = fmt.Sprintf("COALESCE((%s), FALSE)", expr)
		if msg == "" {
			msg = "Value matches expression: " + expr
		}
	}
	return Condition{Predicate: predicate, Message: QuoteString(msg), Name: name}, nil
}

// referenceTime returns the per-check override when given, else the evaluation clock.
func referenceTime(env Env, a Args, arg string) time.Time {
	if t, ok := a.Time(arg); ok {
		return t
	}
	if env.Now.IsZero() {
		return time.Now()
	}
	return env.Now
}

// lessThan compares two bound scalars of the same family. Mixed or
// non-comparable values report false and are left to the engine.
func lessThan(a, b any) bool {
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			return fa < fb
		}
		return false
	}
	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Before(y)
		}
	case string:
		if y, ok := b.(string); ok {
			return x < y
		}
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
