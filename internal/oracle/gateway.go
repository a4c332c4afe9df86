// Package oracle wraps the generative model behind the two fixed prompt contracts
// used by the pipelines: tool resolution and method discovery.
package oracle

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/jonathan/purelink/internal/llm"
	"github.com/jonathan/purelink/internal/prompts"
	"github.com/jonathan/purelink/internal/schemas"
)

// Generation settings per call type
const (
	ResolveTemperature  float32 = 0
	ResolveMaxTokens    int32   = 512
	DiscoverTemperature float32 = 0.3
	DiscoverMaxTokens   int32   = 4096
)

const unknownPlaceholderText = "Unknown"

// Gateway issues oracle calls through an llm.Client.
type Gateway struct {
	client llm.Client
	logger *zap.Logger
}

// NewGateway creates a gateway. A nil logger discards diagnostics.
func NewGateway(client llm.Client, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{client: client, logger: logger.Named("oracle")}
}

// Model returns the model name used for both call types.
func (g *Gateway) Model() string {
	return g.client.GetModel(llm.TierStandard)
}

// ResolveTool asks the model to identify the tool described by userText.
// A missing or non-object response is reported as ErrEmptyResolution.
func (g *Gateway) ResolveTool(ctx context.Context, userText string) (*RawResolution, error) {
	prompt := prompts.Format(prompts.MustGet(prompts.ResolutionFile, prompts.ResolveToolKey), map[string]string{
		"UserText": userText,
	})

	text, err := g.client.GenerateJSON(ctx, &llm.Request{
		Prompt:          prompt,
		Tier:            llm.TierStandard,
		Temperature:     ResolveTemperature,
		MaxOutputTokens: ResolveMaxTokens,
		Schema:          llm.ToolResolutionSchema(),
	})
	if err != nil {
		return nil, &APICallError{Message: "tool resolution", Cause: err}
	}

	return parseResolution(text)
}

func parseResolution(text string) (*RawResolution, error) {
	if text == "" {
		return nil, ErrEmptyResolution
	}

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &ParseError{Message: "resolution is not JSON", Cause: err}
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, ErrEmptyResolution
	}
	if err := schemas.Validate(schemas.ToolResolution, doc); err != nil {
		return nil, &ParseError{Message: "resolution has the wrong shape", Cause: err}
	}

	var res RawResolution
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		return nil, &ParseError{Message: "failed to decode resolution", Cause: err}
	}
	return &res, nil
}

// DiscoverMethods asks the model for output methods of a confirmed tool.
// Any failure yields an empty result; items that are not method objects are dropped.
func (g *Gateway) DiscoverMethods(ctx context.Context, c CandidateContext) []RawMethod {
	prompt := prompts.Format(prompts.MustGet(prompts.DiscoveryFile, prompts.DiscoverMethodsKey), map[string]string{
		"ToolName":   orUnknown(c.ToolName),
		"Developer":  orUnknown(c.Developer),
		"Domain":     orUnknown(c.Domain),
		"WebsiteURL": orUnknown(c.WebsiteURL),
	})

	text, err := g.client.GenerateContent(ctx, &llm.Request{
		Prompt:          prompt,
		Tier:            llm.TierStandard,
		Temperature:     DiscoverTemperature,
		MaxOutputTokens: DiscoverMaxTokens,
	})
	if err != nil {
		g.logger.Warn("method discovery call failed", zap.String("tool", c.ToolName), zap.Error(err))
		return nil
	}

	methods, err := parseMethods(text, g.logger)
	if err != nil {
		g.logger.Warn("method discovery response unusable", zap.String("tool", c.ToolName), zap.Error(err))
		return nil
	}
	return methods
}

func parseMethods(text string, logger *zap.Logger) ([]RawMethod, error) {
	text = llm.StripCodeFence(text)
	if text == "" {
		return nil, &ParseError{Message: "empty response"}
	}

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &ParseError{Message: "methods are not JSON", Cause: err}
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		list, ok := v["methods"].([]any)
		if !ok {
			return nil, &ParseError{Message: "object has no methods array"}
		}
		items = list
	default:
		return nil, &ParseError{Message: "expected an array or an object with methods"}
	}

	methods := make([]RawMethod, 0, len(items))
	for i, item := range items {
		if err := schemas.Validate(schemas.OutputMethod, item); err != nil {
			logger.Debug("skipping malformed method", zap.Int("index", i), zap.Error(err))
			continue
		}
		encoded, err := json.Marshal(item)
		if err != nil {
			continue
		}
		var m RawMethod
		if err := json.Unmarshal(encoded, &m); err != nil {
			logger.Debug("skipping undecodable method", zap.Int("index", i), zap.Error(err))
			continue
		}
		m.applyDefaults()
		methods = append(methods, m)
	}
	return methods, nil
}

func orUnknown(s string) string {
	if s == "" {
		return unknownPlaceholderText
	}
	return s
}
