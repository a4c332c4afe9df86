// Package types provides the data model shared by the resolution and discovery pipelines.
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Resolution sources
const (
	SourceDatabaseStore  = "database-store"
	SourceLLM            = "llm"
	SourceCandidateStore = "candidate-store"
)

// ToolCandidate is a single hypothesis about the identity of a tool.
type ToolCandidate struct {
	CandidateID   string  `json:"candidateId" validate:"required"`
	ToolName      string  `json:"toolName" validate:"required"`
	Developer     string  `json:"developer,omitempty"`
	WebsiteDomain string  `json:"websiteDomain,omitempty"`
	WebsiteURL    string  `json:"websiteUrl,omitempty"`
	LogoURL       string  `json:"logoUrl,omitempty"`
	Confidence    float64 `json:"confidence" validate:"gte=0,lte=1"`
	Notes         string  `json:"notes,omitempty"`
}

// Validate checks the candidate's required fields and confidence range.
func (c *ToolCandidate) Validate() error {
	return validate.Struct(c)
}

// StoredCandidate is a candidate as held by a candidate store, with access bookkeeping.
type StoredCandidate struct {
	ToolCandidate
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed time.Time `json:"lastAccessed"`
	AccessCount  int       `json:"accessCount"`
}

// Touch returns the record that should replace existing when candidate is written at now.
// A nil existing record starts a fresh access history.
func Touch(existing *StoredCandidate, candidate ToolCandidate, now time.Time) StoredCandidate {
	if existing == nil {
		return StoredCandidate{
			ToolCandidate: candidate,
			CreatedAt:     now,
			LastAccessed:  now,
			AccessCount:   1,
		}
	}
	return StoredCandidate{
		ToolCandidate: candidate,
		CreatedAt:     existing.CreatedAt,
		LastAccessed:  now,
		AccessCount:   existing.AccessCount + 1,
	}
}

// ToolResolution is the answer to one resolution request, ordered best-first.
type ToolResolution struct {
	Candidates     []ToolCandidate `json:"candidates"`
	SelectedIndex  int             `json:"selectedIndex"`
	Disambiguation string          `json:"disambiguation,omitempty"`
	Citations      []string        `json:"citations,omitempty"`
	Source         string          `json:"source"`
}

// Selected returns the selected candidate. The resolution must be normalized.
func (r *ToolResolution) Selected() ToolCandidate {
	return r.Candidates[r.SelectedIndex]
}

// CapturePayload is the data section of a capture-intent envelope.
type CapturePayload struct {
	Candidates     []ToolCandidate `json:"candidates" validate:"required,min=1,dive"`
	SelectedIndex  int             `json:"selectedIndex" validate:"gte=0"`
	SelectedTool   ToolCandidate   `json:"selectedTool"`
	Disambiguation string          `json:"disambiguation,omitempty"`
	Citations      []string        `json:"citations,omitempty"`
}

// Validate checks the payload and that SelectedIndex points into Candidates.
func (p *CapturePayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	if p.SelectedIndex >= len(p.Candidates) {
		return &IndexError{Field: "selectedIndex", Index: p.SelectedIndex, Len: len(p.Candidates)}
	}
	return nil
}

// CaptureDisplay is the compact view of a capture used by front-end consumers.
type CaptureDisplay struct {
	ID             string `json:"id"`
	ToolName       string `json:"toolName"`
	Developer      string `json:"developer"`
	Domain         string `json:"domain"`
	Logo           string `json:"logo"`
	Disambiguation string `json:"disambiguation"`
}
