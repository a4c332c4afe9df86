package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind discriminates the payload carried by an envelope.
type Kind string

// Envelope kinds
const (
	KindCaptureIntent   Kind = "capture-intent"
	KindDiscoverMethods Kind = "discover-methods"
)

// Current schema versions per kind. Older versions decode into the same structs.
const (
	CaptureIntentVersion   = 3
	DiscoverMethodsVersion = 2
)

// Envelope sources
const (
	EnvelopeSourceCapture   = "user-input+llm"
	EnvelopeSourceDiscovery = "candidate-llm-discovery"
)

// Envelope is the persisted unit of the record log. Data holds the kind-specific
// payload and is decoded through Capture or Discovery.
type Envelope struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"createdAt"`
	Source      string          `json:"source"`
	CandidateID string          `json:"candidateId,omitempty"`
	RawInput    string          `json:"rawInput"`
	Data        json.RawMessage `json:"data"`
	Meta        map[string]any  `json:"meta,omitempty"`
}

// NewCaptureEnvelope wraps a capture payload.
func NewCaptureEnvelope(id string, createdAt time.Time, rawInput string, payload *CapturePayload, meta map[string]any) (*Envelope, error) {
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("invalid capture payload: %w", err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal capture payload: %w", err)
	}
	return &Envelope{
		ID:          id,
		Kind:        KindCaptureIntent,
		Version:     CaptureIntentVersion,
		CreatedAt:   createdAt.UTC(),
		Source:      EnvelopeSourceCapture,
		CandidateID: payload.SelectedTool.CandidateID,
		RawInput:    rawInput,
		Data:        data,
		Meta:        meta,
	}, nil
}

// NewDiscoveryEnvelope wraps a method discovery batch for candidateID.
func NewDiscoveryEnvelope(id string, createdAt time.Time, candidateID, rawInput string, discovery *MethodDiscovery, meta map[string]any) (*Envelope, error) {
	if err := discovery.Validate(); err != nil {
		return nil, fmt.Errorf("invalid method discovery: %w", err)
	}
	data, err := json.Marshal(discovery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal method discovery: %w", err)
	}
	return &Envelope{
		ID:          id,
		Kind:        KindDiscoverMethods,
		Version:     DiscoverMethodsVersion,
		CreatedAt:   createdAt.UTC(),
		Source:      EnvelopeSourceDiscovery,
		CandidateID: candidateID,
		RawInput:    rawInput,
		Data:        data,
		Meta:        meta,
	}, nil
}

// DecodeEnvelope parses one serialized envelope and checks its kind and version.
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to parse envelope: %w", err)
	}
	if err := env.Check(); err != nil {
		return nil, err
	}
	return &env, nil
}

// Check verifies the envelope has an id and a known kind and version.
func (e *Envelope) Check() error {
	if e.ID == "" {
		return &EnvelopeError{Message: "missing id"}
	}
	var current int
	switch e.Kind {
	case KindCaptureIntent:
		current = CaptureIntentVersion
	case KindDiscoverMethods:
		current = DiscoverMethodsVersion
	default:
		return &EnvelopeError{ID: e.ID, Message: fmt.Sprintf("unknown kind %q", e.Kind)}
	}
	if e.Version < 1 || e.Version > current {
		return &EnvelopeError{ID: e.ID, Message: fmt.Sprintf("unsupported %s version %d", e.Kind, e.Version)}
	}
	return nil
}

// Capture decodes the payload of a capture-intent envelope.
func (e *Envelope) Capture() (*CapturePayload, error) {
	if e.Kind != KindCaptureIntent {
		return nil, &EnvelopeError{ID: e.ID, Message: fmt.Sprintf("expected %s, got %s", KindCaptureIntent, e.Kind)}
	}
	var payload CapturePayload
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return nil, &EnvelopeError{ID: e.ID, Message: "malformed capture payload", Cause: err}
	}
	// Version 2 records predate selectedTool.
	if payload.SelectedTool.CandidateID == "" && payload.SelectedIndex >= 0 && payload.SelectedIndex < len(payload.Candidates) {
		payload.SelectedTool = payload.Candidates[payload.SelectedIndex]
	}
	return &payload, nil
}

// Discovery decodes the payload of a discover-methods envelope.
func (e *Envelope) Discovery() (*MethodDiscovery, error) {
	if e.Kind != KindDiscoverMethods {
		return nil, &EnvelopeError{ID: e.ID, Message: fmt.Sprintf("expected %s, got %s", KindDiscoverMethods, e.Kind)}
	}
	var discovery MethodDiscovery
	if err := json.Unmarshal(e.Data, &discovery); err != nil {
		return nil, &EnvelopeError{ID: e.ID, Message: "malformed discovery payload", Cause: err}
	}
	return &discovery, nil
}
