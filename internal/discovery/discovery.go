// Package discovery finds, verifies, selects and records output methods for a confirmed tool.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/purelink/internal/identity"
	"github.com/jonathan/purelink/internal/oracle"
	"github.com/jonathan/purelink/internal/store"
	"github.com/jonathan/purelink/internal/types"
)

var (
	// ErrNoMethods is returned when the model produced no usable methods.
	ErrNoMethods = errors.New("no methods discovered")
	// ErrNoSelection is returned when the user cancelled the method menu.
	ErrNoSelection = errors.New("no method selected")
)

// Oracle is the model call used on a cache miss.
type Oracle interface {
	DiscoverMethods(ctx context.Context, c oracle.CandidateContext) []oracle.RawMethod
}

// Chooser asks a human to pick one of n options, returning a 0-based index.
type Chooser interface {
	Choose(ctx context.Context, question string, n int) (int, error)
}

// Presenter shows progress to a human. All methods may be no-ops.
type Presenter interface {
	PrintMethods(toolName string, d *types.MethodDiscovery)
	PrintExpiration(info *types.ExpirationInfo)
}

// Options configures a Pipeline.
type Options struct {
	Candidates store.CandidateStore
	Verifier   *Verifier
	Chooser    Chooser
	Presenter  Presenter
	TTL        time.Duration
	Now        func() time.Time
	Meta       map[string]any
	Logger     *zap.Logger
}

// Pipeline runs method discovery against a record log.
type Pipeline struct {
	oracle     Oracle
	log        store.RecordLog
	lookup     *store.Lookup
	candidates store.CandidateStore
	verifier   *Verifier
	chooser    Chooser
	presenter  Presenter
	ttl        time.Duration
	now        func() time.Time
	meta       map[string]any
	logger     *zap.Logger
}

// New creates a Pipeline.
func New(o Oracle, log store.RecordLog, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = types.DefaultMethodTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		oracle:     o,
		log:        log,
		lookup:     store.NewLookup(log, logger),
		candidates: opts.Candidates,
		verifier:   opts.Verifier,
		chooser:    opts.Chooser,
		presenter:  opts.Presenter,
		ttl:        ttl,
		now:        now,
		meta:       opts.Meta,
		logger:     logger.Named("discovery"),
	}
}

// Result is the outcome of a discovery run.
type Result struct {
	Candidate  types.ToolCandidate
	Discovery  *types.MethodDiscovery
	Expiration *types.ExpirationInfo
	RecordID   string
	Display    *types.MethodDisplay
}

// Selected returns the chosen method.
func (r *Result) Selected() types.OutputMethod {
	return r.Discovery.Selected()
}

// RunByID looks the candidate up in the candidate store, then the record log,
// and runs discovery for it.
func (p *Pipeline) RunByID(ctx context.Context, candidateID string, interactive bool) (*Result, error) {
	candidate, source, err := store.FindCandidate(ctx, p.candidates, p.lookup, candidateID)
	if err != nil {
		return nil, fmt.Errorf("candidate %s: %w", candidateID, err)
	}
	p.logger.Debug("found candidate", zap.String("candidate_id", candidateID), zap.String("source", source))
	return p.Run(ctx, *candidate, candidateID, interactive)
}

// Run discovers methods for candidate, reusing a fresh cached batch when one
// exists, then selects and records one method. rawInput is stored on the record.
func (p *Pipeline) Run(ctx context.Context, candidate types.ToolCandidate, rawInput string, interactive bool) (*Result, error) {
	now := p.now().UTC()
	result := &Result{Candidate: candidate}

	discovery, expiration := p.cached(ctx, candidate.CandidateID, now)
	if discovery != nil {
		result.Expiration = expiration
		if p.presenter != nil {
			p.presenter.PrintExpiration(expiration)
		}
	} else {
		methods := p.discover(ctx, candidate)
		if len(methods) == 0 {
			return nil, ErrNoMethods
		}
		discovery = &types.MethodDiscovery{
			Methods:         methods,
			DiscoverySource: types.DiscoverySourceLLM,
			ExpiresAt:       now.Add(p.ttl),
		}
	}

	if p.presenter != nil {
		p.presenter.PrintMethods(candidate.ToolName, discovery)
	}

	idx, err := p.selectMethod(ctx, discovery.Methods, interactive)
	if err != nil {
		return nil, err
	}
	discovery.SelectedIndex = idx
	result.Discovery = discovery

	meta := map[string]any{"discoveryMethod": "llm"}
	if discovery.DiscoverySource == types.DiscoverySourceCache {
		meta["discoveryMethod"] = "cache"
	}
	for k, v := range p.meta {
		meta[k] = v
	}

	env, err := types.NewDiscoveryEnvelope(store.NewRecordID(), now, candidate.CandidateID, rawInput, discovery, meta)
	if err != nil {
		return nil, err
	}
	id, err := p.log.Append(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("failed to record discovery: %w", err)
	}
	result.RecordID = id
	result.Display = NewDisplay(id, candidate.CandidateID, discovery.Selected())

	p.logger.Info("method selected",
		zap.String("candidate_id", candidate.CandidateID),
		zap.String("method_id", discovery.Selected().MethodID),
		zap.String("source", discovery.DiscoverySource),
		zap.String("record_id", id))
	return result, nil
}

// cached returns a fresh cached batch as a new cache-sourced discovery stamped with
// a new expiry. The returned ExpirationInfo describes the cached batch.
func (p *Pipeline) cached(ctx context.Context, candidateID string, now time.Time) (*types.MethodDiscovery, *types.ExpirationInfo) {
	rec, err := p.lookup.FreshDiscovery(ctx, candidateID, now)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrExpired) {
			p.logger.Warn("method cache lookup failed", zap.String("candidate_id", candidateID), zap.Error(err))
		}
		if errors.Is(err, store.ErrExpired) {
			p.logger.Info("cached methods expired", zap.String("candidate_id", candidateID))
		}
		return nil, nil
	}
	if len(rec.Discovery.Methods) == 0 {
		return nil, nil
	}

	info := types.NewExpirationInfo(rec.Discovery, rec.Envelope.CreatedAt, now)
	return &types.MethodDiscovery{
		Methods:         rec.Discovery.Methods,
		DiscoverySource: types.DiscoverySourceCache,
		ExpiresAt:       now.Add(p.ttl),
	}, &info
}

func (p *Pipeline) discover(ctx context.Context, candidate types.ToolCandidate) []types.OutputMethod {
	raw := p.oracle.DiscoverMethods(ctx, oracle.CandidateContext{
		ToolName:   candidate.ToolName,
		Developer:  candidate.Developer,
		Domain:     candidate.WebsiteDomain,
		WebsiteURL: candidate.WebsiteURL,
	})

	methods := make([]types.OutputMethod, 0, len(raw))
	for _, r := range raw {
		m := NormalizeMethod(r, candidate.CandidateID)
		if p.verifier != nil && m.DocsURL != "" {
			m.DocsURL = p.verifier.Verify(ctx, m.DocsURL, candidate.WebsiteDomain)
		}
		methods = append(methods, m)
	}
	return methods
}

func (p *Pipeline) selectMethod(ctx context.Context, methods []types.OutputMethod, interactive bool) (int, error) {
	if !interactive || p.chooser == nil {
		return BestMethod(methods), nil
	}
	idx, err := p.chooser.Choose(ctx, "Select a method", len(methods))
	if err != nil {
		if ctx.Err() != nil {
			return -1, ctx.Err()
		}
		p.logger.Info("method selection cancelled", zap.Error(err))
		return -1, ErrNoSelection
	}
	if idx < 0 || idx >= len(methods) {
		return -1, ErrNoSelection
	}
	return idx, nil
}

// NormalizeMethod converts a raw model method into an OutputMethod owned by candidateID.
func NormalizeMethod(r oracle.RawMethod, candidateID string) types.OutputMethod {
	methodType := types.ParseMethodType(r.MethodType)
	name := strings.TrimSpace(r.MethodName)
	if name == "" {
		name = oracle.DefaultMethodName
	}
	return types.OutputMethod{
		MethodID:   identity.MethodID(name, string(methodType), candidateID),
		MethodType: methodType,
		MethodName: name,
		Endpoint:   strings.TrimSpace(r.Endpoint),
		DocsURL:    strings.TrimSpace(r.DocsURL),
		AuthType:   strings.TrimSpace(r.AuthType),
		Confidence: clamp01(r.Confidence.Or(oracle.DefaultMethodConfidence)),
		Notes:      strings.TrimSpace(r.Notes),
	}
}

// BestMethod returns the index of the highest-confidence method; ties keep the earliest.
func BestMethod(methods []types.OutputMethod) int {
	best := 0
	for i := 1; i < len(methods); i++ {
		if methods[i].Confidence > methods[best].Confidence {
			best = i
		}
	}
	return best
}

// NewDisplay builds the compact view of a method selection.
func NewDisplay(recordID, candidateID string, m types.OutputMethod) *types.MethodDisplay {
	return &types.MethodDisplay{
		ID:          recordID,
		CandidateID: candidateID,
		MethodName:  m.MethodName,
		MethodType:  m.MethodType,
		Endpoint:    m.Endpoint,
		DocsURL:     m.DocsURL,
		AuthType:    m.AuthType,
		Confidence:  m.Confidence,
	}
}

func clamp01(f float64) float64 {
	switch {
	case f != f || f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
