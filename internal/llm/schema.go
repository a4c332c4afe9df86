package llm

import "github.com/google/generative-ai-go/genai"

// ToolResolutionSchema is the structured-decoding schema for tool resolution calls.
func ToolResolutionSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"candidates": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"tool_name":      str,
						"developer":      str,
						"website_domain": str,
						"website_url":    str,
						"logo_url":       str,
						"confidence":     {Type: genai.TypeNumber},
						"notes":          str,
					},
					Required: []string{"tool_name"},
				},
			},
			"selected_index": {Type: genai.TypeInteger},
			"disambiguation": str,
			"citations":      {Type: genai.TypeArray, Items: str},
		},
		Required: []string{"candidates", "selected_index"},
	}
}
