package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ResolvePrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(ResolutionFile, ResolveToolKey)
	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.UserText}}")
	assert.Contains(t, prompt, "selected_index")
}

func TestGet_DiscoverPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(DiscoveryFile, DiscoverMethodsKey)
	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.ToolName}}")
	assert.Contains(t, prompt, "docs_url")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(ResolutionFile, "nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		expected string
	}{
		{"substitutes", "Tool {{.ToolName}} at {{.Domain}}", map[string]string{"ToolName": "HiBob", "Domain": "hibob.com"}, "Tool HiBob at hibob.com"},
		{"repeated", "{{.Domain}}/api {{.Domain}}/docs", map[string]string{"Domain": "x.io"}, "x.io/api x.io/docs"},
		{"missing key stays", "Hello {{.Name}}", map[string]string{}, "Hello {{.Name}}"},
		{"json braces untouched", `{"a": "{{.V}}"}`, map[string]string{"V": "1"}, `{"a": "1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.template, tt.data))
		})
	}
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List(DiscoveryFile)
	require.NoError(t, err)
	assert.Equal(t, []string{DiscoverMethodsKey}, keys)
}
