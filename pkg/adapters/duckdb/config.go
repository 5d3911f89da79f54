package duckdb

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from core.AdapterConfig.Params using mapstructure.
type Params struct {
	// Extensions to install and load (e.g., "httpfs", "json")
	Extensions []string `mapstructure:"extensions"`

	// Secrets for reading datasets from cloud storage
	Secrets []SecretConfig `mapstructure:"secrets"`

	// Settings to apply at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`
}

// SecretConfig defines a DuckDB secret for cloud storage.
type SecretConfig struct {
	// Type: "s3", "gcs", "azure", "r2"
	Type     string `mapstructure:"type"`
	Provider string `mapstructure:"provider"`
	Region   string `mapstructure:"region"`
	// Scope limits the secret to specific paths (string or list)
	Scope    any    `mapstructure:"scope"`
	KeyID    string `mapstructure:"key_id"`
	Secret   string `mapstructure:"secret"`
	Endpoint string `mapstructure:"endpoint"`
	URLStyle string `mapstructure:"url_style"`
	UseSSL   *bool  `mapstructure:"use_ssl"`
}

// ParseParams decodes raw adapter params. Unknown keys are rejected so a
// typo in leapdq.yaml does not silently drop a setting.
func ParseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("duckdb params decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid duckdb params: %w", err)
	}
	return p, nil
}

// buildCreateSecretSQL renders a CREATE SECRET statement, one option per line.
func buildCreateSecretSQL(s SecretConfig) string {
	opts := []string{"TYPE " + s.Type}
	if s.Provider != "" {
		opts = append(opts, "PROVIDER "+s.Provider)
	}
	quoted := []struct{ key, val string }{
		{"REGION", s.Region},
	}
	for _, q := range quoted {
		if q.val != "" {
			opts = append(opts, fmt.Sprintf("%s '%s'", q.key, escapeString(q.val)))
		}
	}
	if scope := scopeSQL(s.Scope); scope != "" {
		opts = append(opts, "SCOPE "+scope)
	}
	quoted = []struct{ key, val string }{
		{"KEY_ID", s.KeyID},
		{"SECRET", s.Secret},
		{"ENDPOINT", s.Endpoint},
		{"URL_STYLE", s.URLStyle},
	}
	for _, q := range quoted {
		if q.val != "" {
			opts = append(opts, fmt.Sprintf("%s '%s'", q.key, escapeString(q.val)))
		}
	}
	if s.UseSSL != nil {
		opts = append(opts, fmt.Sprintf("USE_SSL %t", *s.UseSSL))
	}
	return "CREATE SECRET (\n    " + strings.Join(opts, ",\n    ") + "\n)"
}

func scopeSQL(scope any) string {
	var items []string
	switch v := scope.(type) {
	case nil:
		return ""
	case string:
		return "'" + escapeString(v) + "'"
	case []string:
		items = append(items, v...)
	case []any:
		for _, item := range v {
			items = append(items, fmt.Sprint(item))
		}
	default:
		return "'" + escapeString(fmt.Sprint(v)) + "'"
	}
	if len(items) == 0 {
		return ""
	}
	for i := range items {
		items[i] = "'" + escapeString(items[i]) + "'"
	}
	return "(" + strings.Join(items, ", ") + ")"
}
