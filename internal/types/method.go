package types

import (
	"strings"
	"time"
)

// MethodType is the kind of data-extraction mechanism a method offers.
type MethodType string

// Method types
const (
	MethodAPI       MethodType = "api"
	MethodMCP       MethodType = "mcp"
	MethodExport    MethodType = "export"
	MethodWebhook   MethodType = "webhook"
	MethodDatabase  MethodType = "database"
	MethodConnector MethodType = "connector"
)

// Discovery sources
const (
	DiscoverySourceLLM   = "llm-powered"
	DiscoverySourceCache = "cache"
)

// DefaultMethodTTL is how long a discovery batch stays fresh.
const DefaultMethodTTL = 30 * 24 * time.Hour

// ParseMethodType maps free text onto the closed set of method types.
// Unknown or empty values fall back to MethodAPI.
func ParseMethodType(s string) MethodType {
	switch t := MethodType(strings.ToLower(strings.TrimSpace(s))); t {
	case MethodAPI, MethodMCP, MethodExport, MethodWebhook, MethodDatabase, MethodConnector:
		return t
	default:
		return MethodAPI
	}
}

// OutputMethod is one data-extraction mechanism for a confirmed tool.
type OutputMethod struct {
	MethodID   string     `json:"methodId" validate:"required"`
	MethodType MethodType `json:"methodType" validate:"oneof=api mcp export webhook database connector"`
	MethodName string     `json:"methodName" validate:"required"`
	Endpoint   string     `json:"endpoint,omitempty"`
	DocsURL    string     `json:"docsUrl,omitempty"`
	AuthType   string     `json:"authType,omitempty"`
	Confidence float64    `json:"confidence" validate:"gte=0,lte=1"`
	Notes      string     `json:"notes,omitempty"`
}

// Validate checks the method's required fields and enum values.
func (m *OutputMethod) Validate() error {
	return validate.Struct(m)
}

// MethodDiscovery is a batch of discovered methods with a selection and expiry.
type MethodDiscovery struct {
	Methods         []OutputMethod `json:"methods" validate:"dive"`
	SelectedIndex   int            `json:"selectedIndex"`
	DiscoverySource string         `json:"discoverySource"`
	ExpiresAt       time.Time      `json:"expiresAt"`
}

// Validate checks the batch's methods and selection.
func (d *MethodDiscovery) Validate() error {
	if err := validate.Struct(d); err != nil {
		return err
	}
	if d.SelectedIndex < 0 || d.SelectedIndex >= len(d.Methods) {
		return &IndexError{Field: "selectedIndex", Index: d.SelectedIndex, Len: len(d.Methods)}
	}
	return nil
}

// IsExpired reports whether the batch is stale at now.
func (d *MethodDiscovery) IsExpired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}

// Selected returns the selected method.
func (d *MethodDiscovery) Selected() OutputMethod {
	return d.Methods[d.SelectedIndex]
}

// MethodDisplay is the compact view of a method selection.
type MethodDisplay struct {
	ID          string     `json:"id"`
	CandidateID string     `json:"candidateId"`
	MethodName  string     `json:"methodName"`
	MethodType  MethodType `json:"methodType"`
	Endpoint    string     `json:"endpoint"`
	DocsURL     string     `json:"docsUrl"`
	AuthType    string     `json:"authType"`
	Confidence  float64    `json:"confidence"`
}

// ExpirationInfo summarizes the freshness of the latest discovery batch for a candidate.
type ExpirationInfo struct {
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
	IsExpired       bool      `json:"isExpired"`
	DaysUntilExpiry int       `json:"daysUntilExpiry"`
	MethodsCount    int       `json:"methodsCount"`
}

// NewExpirationInfo computes freshness of d (recorded at createdAt) as seen at now.
func NewExpirationInfo(d *MethodDiscovery, createdAt, now time.Time) ExpirationInfo {
	info := ExpirationInfo{
		CreatedAt:    createdAt,
		ExpiresAt:    d.ExpiresAt,
		IsExpired:    d.IsExpired(now),
		MethodsCount: len(d.Methods),
	}
	if !info.IsExpired {
		info.DaysUntilExpiry = int(d.ExpiresAt.Sub(now) / (24 * time.Hour))
	}
	return info
}
