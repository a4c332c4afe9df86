package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ToolResolution(t *testing.T) {
	doc := map[string]any{
		"candidates": []any{
			map[string]any{"tool_name": "HiBob", "website_domain": "hibob.com", "confidence": 1.0},
		},
		"selected_index": 0,
	}
	assert.NoError(t, Validate(ToolResolution, doc))
}

func TestValidate_ToolResolutionAcceptsStringConfidence(t *testing.T) {
	doc := map[string]any{
		"candidates": []any{map[string]any{"tool_name": "HiBob", "confidence": "0.8"}},
	}
	assert.NoError(t, Validate(ToolResolution, doc))
}

func TestValidate_ToolResolutionNullCandidates(t *testing.T) {
	assert.NoError(t, Validate(ToolResolution, map[string]any{"candidates": nil}))
}

func TestValidate_ToolResolutionWrongShape(t *testing.T) {
	tests := []struct {
		name string
		doc  any
	}{
		{"candidates not array", map[string]any{"candidates": "HiBob"}},
		{"candidate not object", map[string]any{"candidates": []any{"HiBob"}}},
		{"tool name not string", map[string]any{"candidates": []any{map[string]any{"tool_name": 42.0}}}},
		{"root not object", []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(ToolResolution, tt.doc)
			require.Error(t, err)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidate_OutputMethod(t *testing.T) {
	assert.NoError(t, Validate(OutputMethod, map[string]any{"method_name": "REST API", "method_type": "api"}))
	assert.Error(t, Validate(OutputMethod, map[string]any{"method_name": []any{"x"}}))
	assert.Error(t, Validate(OutputMethod, "REST API"))
}

func TestValidateBytes_Envelope(t *testing.T) {
	valid := `{"id":"01J","kind":"capture-intent","version":3,"createdAt":"2025-01-01T00:00:00Z","data":{}}`
	assert.NoError(t, ValidateBytes(Envelope, []byte(valid)))

	missingKind := `{"id":"01J","version":3,"createdAt":"2025-01-01T00:00:00Z","data":{}}`
	assert.Error(t, ValidateBytes(Envelope, []byte(missingKind)))

	badKind := `{"id":"01J","kind":"other","version":3,"createdAt":"2025-01-01T00:00:00Z","data":{}}`
	assert.Error(t, ValidateBytes(Envelope, []byte(badKind)))
}

func TestValidateBytes_MalformedJSON(t *testing.T) {
	assert.Error(t, ValidateBytes(Envelope, []byte(`{"id":`)))
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nope", map[string]any{})
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}
