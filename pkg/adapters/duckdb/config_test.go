package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		want    *Params
		wantErr string
	}{
		{
			name:  "nil params",
			input: nil,
			want:  &Params{},
		},
		{
			name: "extensions and settings",
			input: map[string]any{
				"extensions": []any{"httpfs", "json"},
				"settings":   map[string]any{"threads": 4, "memory_limit": "1GB"},
			},
			want: &Params{
				Extensions: []string{"httpfs", "json"},
				Settings:   map[string]string{"threads": "4", "memory_limit": "1GB"},
			},
		},
		{
			name: "secret with scope list",
			input: map[string]any{
				"secrets": []any{
					map[string]any{
						"type":     "s3",
						"provider": "credential_chain",
						"scope":    []any{"s3://raw", "s3://curated"},
						"use_ssl":  false,
					},
				},
			},
			want: &Params{
				Secrets: []SecretConfig{{
					Type:     "s3",
					Provider: "credential_chain",
					Scope:    []any{"s3://raw", "s3://curated"},
					UseSSL:   boolPtr(false),
				}},
			},
		},
		{
			name:    "unknown key rejected",
			input:   map[string]any{"extension": []any{"json"}},
			wantErr: "invalid duckdb params",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildCreateSecretSQL(t *testing.T) {
	tests := []struct {
		name string
		cfg  SecretConfig
		want string
	}{
		{
			name: "type only",
			cfg:  SecretConfig{Type: "s3"},
			want: "CREATE SECRET (\n    TYPE s3\n)",
		},
		{
			name: "credential chain with scope",
			cfg:  SecretConfig{Type: "s3", Provider: "credential_chain", Region: "eu-west-1", Scope: "s3://raw"},
			want: "CREATE SECRET (\n    TYPE s3,\n    PROVIDER credential_chain,\n    REGION 'eu-west-1',\n    SCOPE 's3://raw'\n)",
		},
		{
			name: "s3 compatible endpoint",
			cfg: SecretConfig{
				Type:     "s3",
				Provider: "config",
				KeyID:    "minio",
				Secret:   "it's-secret",
				Endpoint: "localhost:9000",
				URLStyle: "path",
				Scope:    []string{"s3://a", "s3://b"},
				UseSSL:   boolPtr(false),
			},
			want: "CREATE SECRET (\n    TYPE s3,\n    PROVIDER config,\n    SCOPE ('s3://a', 's3://b'),\n" +
				"    KEY_ID 'minio',\n    SECRET 'it''s-secret',\n    ENDPOINT 'localhost:9000',\n    URL_STYLE 'path',\n    USE_SSL false\n)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildCreateSecretSQL(tt.cfg))
		})
	}
}

func boolPtr(b bool) *bool {
	return &b
}
