// Package resolver turns free text into a normalized tool resolution, consulting
// stored candidates before asking the model.
package resolver

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/purelink/internal/oracle"
	"github.com/jonathan/purelink/internal/store"
	"github.com/jonathan/purelink/internal/types"
)

var (
	// ErrEmptyInput is returned for blank user text.
	ErrEmptyInput = errors.New("empty input")
	// ErrUnresolved is returned when the model produced no usable answer.
	ErrUnresolved = errors.New("tool could not be resolved")
)

// Oracle is the model call the resolver falls back to.
type Oracle interface {
	ResolveTool(ctx context.Context, userText string) (*oracle.RawResolution, error)
}

// Resolver resolves free text to candidates.
type Resolver struct {
	oracle     Oracle
	candidates store.CandidateStore
	lookup     *store.Lookup
	mode       store.MatchMode
	logger     *zap.Logger
}

// Options configures a Resolver. Candidates and Lookup are optional cache tiers.
type Options struct {
	Candidates store.CandidateStore
	Lookup     *store.Lookup
	MatchMode  store.MatchMode
	Logger     *zap.Logger
}

// New creates a Resolver.
func New(o Oracle, opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mode := opts.MatchMode
	if mode == "" {
		mode = store.MatchPermissive
	}
	return &Resolver{
		oracle:     o,
		candidates: opts.Candidates,
		lookup:     opts.Lookup,
		mode:       mode,
		logger:     logger.Named("resolver"),
	}
}

// Resolve returns the stored candidate matching text, or the model's normalized answer.
func (r *Resolver) Resolve(ctx context.Context, text string) (*types.ToolResolution, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	if res := r.fromStore(ctx, text); res != nil {
		return res, nil
	}

	raw, err := r.oracle.ResolveTool(ctx, text)
	if err != nil {
		r.logger.Warn("model resolution failed", zap.String("input", text), zap.Error(err))
		return nil, ErrUnresolved
	}
	if raw == nil {
		return nil, ErrUnresolved
	}

	res := Normalize(raw)
	r.logger.Debug("resolved by model",
		zap.String("input", text),
		zap.Int("candidates", len(res.Candidates)),
		zap.String("selected", res.Selected().CandidateID))
	return res, nil
}

func (r *Resolver) fromStore(ctx context.Context, text string) *types.ToolResolution {
	if r.candidates != nil {
		hit, err := r.candidates.FindByText(ctx, text, r.mode)
		switch {
		case err == nil:
			if _, err := r.candidates.Store(ctx, hit.ToolCandidate); err != nil {
				r.logger.Warn("failed to record candidate access", zap.String("candidate_id", hit.CandidateID), zap.Error(err))
			}
			r.logger.Debug("resolved from candidate store", zap.String("candidate_id", hit.CandidateID))
			return single(hit.ToolCandidate, types.SourceCandidateStore)
		case !errors.Is(err, store.ErrNotFound):
			r.logger.Warn("candidate store lookup failed", zap.Error(err))
		}
	}

	if r.lookup != nil {
		hit, err := r.lookup.FindCapturedByText(ctx, text, r.mode)
		switch {
		case err == nil:
			r.logger.Debug("resolved from record log", zap.String("candidate_id", hit.CandidateID))
			return single(*hit, types.SourceDatabaseStore)
		case !errors.Is(err, store.ErrNotFound):
			r.logger.Warn("record log lookup failed", zap.Error(err))
		}
	}
	return nil
}

func single(c types.ToolCandidate, source string) *types.ToolResolution {
	return &types.ToolResolution{
		Candidates:    []types.ToolCandidate{c},
		SelectedIndex: 0,
		Source:        source,
	}
}
