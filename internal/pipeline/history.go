package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/purelink/internal/store"
	"github.com/jonathan/purelink/internal/types"
)

// DefaultRecentLimit bounds History.Recent when no limit is given.
const DefaultRecentLimit = 10

// ToolHistory is everything recorded about one candidate.
type ToolHistory struct {
	Candidate  types.ToolCandidate    `json:"candidate"`
	Source     string                 `json:"source"`
	Capture    *types.CaptureDisplay  `json:"capture,omitempty"`
	Discovery  *types.MethodDiscovery `json:"discovery,omitempty"`
	Expiration *types.ExpirationInfo  `json:"expiration,omitempty"`
}

// Stats summarizes the record log and candidate store.
func (r *Runner) Stats(ctx context.Context) (*types.HistoryStats, error) {
	captures, err := r.lookup.Captures(ctx)
	if err != nil {
		return nil, err
	}
	discoveries, err := r.deps.Log.QueryAll(ctx, types.KindDiscoverMethods)
	if err != nil {
		return nil, fmt.Errorf("failed to query discoveries: %w", err)
	}

	stats := &types.HistoryStats{
		Captures:         len(captures),
		Discoveries:      len(discoveries),
		MethodTypeCounts: make(map[string]int),
		RecordBackend:    r.deps.Log.Describe(),
	}

	tools := make(map[string]bool)
	for _, rec := range captures {
		tools[rec.Capture.SelectedTool.CandidateID] = true
	}
	stats.UniqueTools = len(tools)

	now := r.deps.Now()
	latest := make(map[string]bool)
	for _, env := range discoveries {
		d, err := env.Discovery()
		if err != nil {
			r.logger.Warn("skipping unreadable discovery", zap.String("id", env.ID), zap.Error(err))
			continue
		}
		if d.SelectedIndex >= 0 && d.SelectedIndex < len(d.Methods) {
			stats.MethodTypeCounts[string(d.Selected().MethodType)]++
		}
		// envelopes arrive newest first; only the newest batch per tool counts
		if latest[env.CandidateID] {
			continue
		}
		latest[env.CandidateID] = true
		if !d.IsExpired(now) {
			stats.FreshDiscoveries++
		}
	}

	if r.deps.Candidates != nil {
		stored, err := r.deps.Candidates.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list candidates: %w", err)
		}
		stats.StoredCandidates = len(stored)
	}
	return stats, nil
}

// Recent returns up to limit captures, newest first.
func (r *Runner) Recent(ctx context.Context, limit int) ([]types.CaptureDisplay, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	captures, err := r.lookup.Captures(ctx)
	if err != nil {
		return nil, err
	}
	if len(captures) > limit {
		captures = captures[:limit]
	}
	displays := make([]types.CaptureDisplay, 0, len(captures))
	for _, rec := range captures {
		displays = append(displays, captureDisplay(rec))
	}
	return displays, nil
}

// Show returns the candidate, latest capture and latest discovery for candidateID.
func (r *Runner) Show(ctx context.Context, candidateID string) (*ToolHistory, error) {
	candidate, source, err := store.FindCandidate(ctx, r.deps.Candidates, r.lookup, candidateID)
	if err != nil {
		return nil, fmt.Errorf("candidate %s: %w", candidateID, err)
	}
	h := &ToolHistory{Candidate: *candidate, Source: source}

	capture, err := r.lookup.LatestCapture(ctx, candidateID)
	switch {
	case err == nil:
		d := captureDisplay(*capture)
		h.Capture = &d
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	rec, err := r.lookup.LatestDiscovery(ctx, candidateID)
	switch {
	case err == nil:
		h.Discovery = rec.Discovery
		info := types.NewExpirationInfo(rec.Discovery, rec.Envelope.CreatedAt, r.deps.Now())
		h.Expiration = &info
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}
	return h, nil
}

func captureDisplay(rec store.CaptureRecord) types.CaptureDisplay {
	tool := rec.Capture.SelectedTool
	return types.CaptureDisplay{
		ID:             rec.Envelope.ID,
		ToolName:       tool.ToolName,
		Developer:      tool.Developer,
		Domain:         tool.WebsiteDomain,
		Logo:           tool.LogoURL,
		Disambiguation: rec.Capture.Disambiguation,
	}
}
