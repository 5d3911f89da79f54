package check

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestampLayout renders timestamps as engine literals, always in UTC.
const timestampLayout = "2006-01-02 15:04:05.999999"

// QuoteIdent quotes a column identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteString renders s as a SQL string literal.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Literal renders a normalized argument value as a SQL literal.
func Literal(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if x {
			return "TRUE", nil
		}
		return "FALSE", nil
	case string:
		return QuoteString(x), nil
	case time.Time:
		return "TIMESTAMP " + QuoteString(x.UTC().Format(timestampLayout)), nil
	case json.Number:
		return x.String(), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case []any:
		items := make([]string, len(x))
		for i, item := range x {
			lit, err := Literal(item)
			if err != nil {
				return "", err
			}
			items[i] = lit
		}
		return "[" + strings.Join(items, ", ") + "]", nil
	}
	if n, ok := toInt(v); ok {
		return strconv.FormatInt(n, 10), nil
	}
	return "", fmt.Errorf("cannot render %T as a SQL literal", v)
}

// InList renders values as the parenthesized operand of IN.
func InList(values []any) (string, error) {
	items := make([]string, len(values))
	for i, v := range values {
		lit, err := Literal(v)
		if err != nil {
			return "", err
		}
		items[i] = lit
	}
	return "(" + strings.Join(items, ", ") + ")", nil
}

// Display renders a value the way it appears inside failure messages.
func Display(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.UTC().Format(timestampLayout)
	case []any:
		items := make([]string, len(x))
		for i, item := range x {
			items[i] = Display(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}

// Concat joins SQL VARCHAR expressions. NULL parts render as empty strings.
func Concat(parts ...string) string {
	return "concat(" + strings.Join(parts, ", ") + ")"
}

// ValueText renders a column as VARCHAR for use in messages.
func ValueText(col string) string {
	return "CAST(" + QuoteIdent(col) + " AS VARCHAR)"
}
