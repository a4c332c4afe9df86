package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json fence",
			input:    "```json\n[{\"method_name\": \"REST\"}]\n```",
			expected: `[{"method_name": "REST"}]`,
		},
		{
			name:     "bare fence",
			input:    "```\n{\"methods\": []}\n```",
			expected: `{"methods": []}`,
		},
		{
			name:     "trailing fence without newline",
			input:    "```json\n[]```",
			expected: `[]`,
		},
		{
			name:     "plain JSON",
			input:    "  [1, 2]  ",
			expected: `[1, 2]`,
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripCodeFence(tt.input))
		})
	}
}

func TestConfig_GetModel(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultModel, cfg.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.GetModel(TierLite))
	assert.Equal(t, DefaultModel, cfg.GetModel(ModelTier("unknown")))

	custom := cfg.WithModel(TierStandard, "gemini-2.5-pro")
	assert.Equal(t, "gemini-2.5-pro", custom.GetModel(TierStandard))
	assert.Equal(t, DefaultModel, cfg.GetModel(TierStandard), "original config must be unchanged")
}

func TestConfig_EmptyModels(t *testing.T) {
	cfg := &Config{Provider: ProviderGemini}
	assert.Equal(t, "", cfg.GetModel(TierStandard))
}

func TestNewGeminiClient_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(t.Context(), DefaultConfig(), "")
	assert.Error(t, err)
}

func TestToolResolutionSchema(t *testing.T) {
	schema := ToolResolutionSchema()
	assert.Contains(t, schema.Properties, "candidates")
	assert.Contains(t, schema.Properties["candidates"].Items.Properties, "website_domain")
	assert.ElementsMatch(t, []string{"candidates", "selected_index"}, schema.Required)
}
