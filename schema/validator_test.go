package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		doc     map[string]interface{}
		wantErr string
	}{
		{
			name: "empty document",
			doc:  map[string]interface{}{},
		},
		{
			name: "defaults and extensions",
			doc: map[string]interface{}{
				"version": "1.0",
				"defaults": map[string]interface{}{
					"timeout":      "30s",
					"output_limit": 4096,
					"echo":         false,
					"output":       "combined",
				},
				"env":     map[string]interface{}{"CI": "1"},
				"logging": map[string]interface{}{"level": "debug"},
			},
		},
		{
			name: "unknown output mode",
			doc: map[string]interface{}{
				"defaults": map[string]interface{}{"output": "tee"},
			},
			wantErr: "/defaults/output",
		},
		{
			name: "unknown defaults key",
			doc: map[string]interface{}{
				"defaults": map[string]interface{}{"retries": 3},
			},
			wantErr: "/defaults",
		},
		{
			name: "negative output limit",
			doc: map[string]interface{}{
				"defaults": map[string]interface{}{"output_limit": -1},
			},
			wantErr: "/defaults/output_limit",
		},
		{
			name: "non-string env value",
			doc: map[string]interface{}{
				"env": map[string]interface{}{"DEBUG": true},
			},
			wantErr: "/env/DEBUG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.doc)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
