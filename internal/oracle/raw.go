package oracle

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Number is a JSON number that may also arrive as a numeric string or null.
// Valid is false when the field was absent, null or unparseable.
type Number struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Number{Value: f, Valid: true}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*n = Number{}
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*n = Number{}
		return nil
	}
	*n = Number{Value: f, Valid: true}
	return nil
}

// Or returns the value, or def when the number was not present.
func (n Number) Or(def float64) float64 {
	if n.Valid {
		return n.Value
	}
	return def
}

// RawCandidate is a candidate exactly as the model described it.
type RawCandidate struct {
	ToolName      string `json:"tool_name"`
	Developer     string `json:"developer"`
	WebsiteDomain string `json:"website_domain"`
	WebsiteURL    string `json:"website_url"`
	LogoURL       string `json:"logo_url"`
	Confidence    Number `json:"confidence"`
	Notes         string `json:"notes"`
}

// RawResolution is the model's unnormalized answer to a resolution prompt.
type RawResolution struct {
	Candidates     []RawCandidate `json:"candidates"`
	SelectedIndex  Number         `json:"selected_index"`
	Disambiguation string         `json:"disambiguation"`
	Citations      []string       `json:"citations"`
}

// RawMethod is an output method exactly as the model described it, with
// missing name, type, auth and confidence already defaulted.
type RawMethod struct {
	MethodType string `json:"method_type"`
	MethodName string `json:"method_name"`
	Endpoint   string `json:"endpoint"`
	DocsURL    string `json:"docs_url"`
	AuthType   string `json:"auth_type"`
	Confidence Number `json:"confidence"`
	Notes      string `json:"notes"`
}

// Method defaults
const (
	DefaultMethodName       = "Unknown Method"
	DefaultMethodType       = "api"
	DefaultAuthType         = "Unknown"
	DefaultMethodConfidence = 0.5
)

func (m *RawMethod) applyDefaults() {
	if strings.TrimSpace(m.MethodName) == "" {
		m.MethodName = DefaultMethodName
	}
	if strings.TrimSpace(m.MethodType) == "" {
		m.MethodType = DefaultMethodType
	}
	if strings.TrimSpace(m.AuthType) == "" {
		m.AuthType = DefaultAuthType
	}
	if !m.Confidence.Valid {
		m.Confidence = Number{Value: DefaultMethodConfidence, Valid: true}
	}
}

// CandidateContext is what the discovery prompt knows about a confirmed tool.
type CandidateContext struct {
	ToolName   string
	Developer  string
	Domain     string
	WebsiteURL string
}
