package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format of a checks document.
type Format string

// Supported checks file formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported checks file %q: expected .yml, .yaml or .json", path)
	}
}

// LoadFile reads a checks document from disk.
func LoadFile(path string) ([]map[string]any, error) {
	if path == "" {
		return nil, errors.New("checks file name is empty")
	}
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // user supplied path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("checks file %s missing", path)
		}
		return nil, fmt.Errorf("failed to read checks file %s: %w", path, err)
	}
	checks, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return checks, nil
}

// Parse decodes a checks document: a sequence of check mappings. Checks and
// their check/arguments blocks may also be given as strings holding an
// inline mapping, as produced by tools that store checks in a text column.
func Parse(data []byte, format Format) ([]map[string]any, error) {
	var doc any
	switch format {
	case FormatYAML:
		if len(bytes.TrimSpace(data)) == 0 {
			return []map[string]any{}, nil
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		doc = normalizeJSON(doc)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	if doc == nil {
		return []map[string]any{}, nil
	}
	list, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("checks must be a list, got %s", typeName(doc))
	}

	checks := make([]map[string]any, 0, len(list))
	for i, item := range list {
		item, err := expandInline(item)
		if err != nil {
			return nil, fmt.Errorf("check %d: %w", i, err)
		}
		m, ok := asMap(item)
		if !ok {
			return nil, fmt.Errorf("check %d: must be a mapping, got %s", i, typeName(item))
		}
		if block, has := m[FieldCheck]; has {
			if block, err = expandInline(block); err != nil {
				return nil, fmt.Errorf("check %d: %s: %w", i, FieldCheck, err)
			}
			if cm, isMap := asMap(block); isMap {
				if args, has := cm[FieldArguments]; has {
					if cm[FieldArguments], err = expandInline(args); err != nil {
						return nil, fmt.Errorf("check %d: %s.%s: %w", i, FieldCheck, FieldArguments, err)
					}
				}
				block = cm
			}
			m[FieldCheck] = block
		}
		checks = append(checks, m)
	}
	return checks, nil
}

// expandInline decodes a string holding a flow mapping such as
// "{'function': 'is_not_null', 'arguments': {'col_name': 'a'}}".
// Other values are returned unchanged.
func expandInline(v any) (any, error) {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(strings.TrimSpace(s), "{") {
		return v, nil
	}
	var out map[string]any
	if err := yaml.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("invalid inline mapping: %w", err)
	}
	return out, nil
}

// normalizeJSON turns json.Number into int64 when integral and float64
// otherwise, matching what the YAML decoder produces.
func normalizeJSON(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = normalizeJSON(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalizeJSON(t[k])
		}
		return t
	default:
		return v
	}
}
