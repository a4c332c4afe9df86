package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/purelink/internal/identity"
	"github.com/jonathan/purelink/internal/types"
)

// DiscoveryRecord is a decoded discover-methods envelope.
type DiscoveryRecord struct {
	Envelope  *types.Envelope
	Discovery *types.MethodDiscovery
}

// CaptureRecord is a decoded capture-intent envelope.
type CaptureRecord struct {
	Envelope *types.Envelope
	Capture  *types.CapturePayload
}

// Lookup answers typed queries over a RecordLog. Envelopes whose payload
// cannot be decoded are skipped.
type Lookup struct {
	log    RecordLog
	logger *zap.Logger
}

// NewLookup creates a Lookup over log.
func NewLookup(log RecordLog, logger *zap.Logger) *Lookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lookup{log: log, logger: logger}
}

// LatestDiscovery returns the newest discovery batch for candidateID regardless of age.
func (l *Lookup) LatestDiscovery(ctx context.Context, candidateID string) (*DiscoveryRecord, error) {
	envs, err := l.log.QueryByKindAndCandidate(ctx, types.KindDiscoverMethods, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query discoveries: %w", err)
	}
	for _, env := range envs {
		d, err := env.Discovery()
		if err != nil {
			l.logger.Warn("skipping unreadable discovery", zap.String("id", env.ID), zap.Error(err))
			continue
		}
		return &DiscoveryRecord{Envelope: env, Discovery: d}, nil
	}
	return nil, ErrNotFound
}

// FreshDiscovery returns the newest discovery batch for candidateID if it has
// not expired at now. A stale batch yields ErrExpired.
func (l *Lookup) FreshDiscovery(ctx context.Context, candidateID string, now time.Time) (*DiscoveryRecord, error) {
	rec, err := l.LatestDiscovery(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if rec.Discovery.IsExpired(now) {
		return nil, ErrExpired
	}
	return rec, nil
}

// Expiration describes the freshness of the newest discovery batch for candidateID.
func (l *Lookup) Expiration(ctx context.Context, candidateID string, now time.Time) (*types.ExpirationInfo, error) {
	rec, err := l.LatestDiscovery(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	info := types.NewExpirationInfo(rec.Discovery, rec.Envelope.CreatedAt, now)
	return &info, nil
}

// LatestCapture returns the newest capture whose selected tool is candidateID.
func (l *Lookup) LatestCapture(ctx context.Context, candidateID string) (*CaptureRecord, error) {
	envs, err := l.log.QueryByKindAndCandidate(ctx, types.KindCaptureIntent, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}
	for _, env := range envs {
		c, err := env.Capture()
		if err != nil {
			l.logger.Warn("skipping unreadable capture", zap.String("id", env.ID), zap.Error(err))
			continue
		}
		return &CaptureRecord{Envelope: env, Capture: c}, nil
	}
	return nil, ErrNotFound
}

// Captures returns every readable capture, newest first.
func (l *Lookup) Captures(ctx context.Context) ([]CaptureRecord, error) {
	envs, err := l.log.QueryAll(ctx, types.KindCaptureIntent)
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}
	records := make([]CaptureRecord, 0, len(envs))
	for _, env := range envs {
		c, err := env.Capture()
		if err != nil {
			l.logger.Warn("skipping unreadable capture", zap.String("id", env.ID), zap.Error(err))
			continue
		}
		records = append(records, CaptureRecord{Envelope: env, Capture: c})
	}
	return records, nil
}

// FindCapturedByText matches text against the selected tools of past captures, newest first.
func (l *Lookup) FindCapturedByText(ctx context.Context, text string, mode MatchMode) (*types.ToolCandidate, error) {
	records, err := l.Captures(ctx)
	if err != nil {
		return nil, err
	}
	query := NormalizeQuery(text)
	for _, rec := range records {
		tool := rec.Capture.SelectedTool
		if tool.CandidateID == identity.UnknownCandidateID {
			continue
		}
		if Matches(query, tool.ToolName, mode) {
			return &tool, nil
		}
	}
	return nil, ErrNotFound
}

// FindCandidate returns the stored candidate for id, falling back to the
// selected tool of the newest capture in the log.
func FindCandidate(ctx context.Context, candidates CandidateStore, lookup *Lookup, id string) (*types.ToolCandidate, string, error) {
	if candidates != nil {
		stored, err := candidates.Get(ctx, id)
		if err == nil {
			return &stored.ToolCandidate, types.SourceCandidateStore, nil
		}
		if !errors.Is(err, ErrNotFound) {
			lookup.logger.Warn("candidate store lookup failed", zap.String("candidate_id", id), zap.Error(err))
		}
	}

	rec, err := lookup.LatestCapture(ctx, id)
	if err != nil {
		return nil, "", err
	}
	tool := rec.Capture.SelectedTool
	return &tool, types.SourceDatabaseStore, nil
}
