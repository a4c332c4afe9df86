// Package store holds the two persistence views of the resolution history: the
// append-only record log of envelopes and the candidate store projection.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/purelink/internal/types"
)

var (
	// ErrNotFound is returned when a lookup has no matching record.
	ErrNotFound = errors.New("record not found")
	// ErrExpired is returned by expiring lookups whose latest record is stale.
	ErrExpired = errors.New("record expired")
)

// RecordLog is the append-only history of envelopes.
type RecordLog interface {
	// Append persists env and returns its id, assigning one if env.ID is empty.
	Append(ctx context.Context, env *types.Envelope) (string, error)
	// QueryByKindAndCandidate returns matching envelopes, newest first.
	QueryByKindAndCandidate(ctx context.Context, kind types.Kind, candidateID string) ([]*types.Envelope, error)
	// QueryAll returns every envelope of kind, newest first.
	QueryAll(ctx context.Context, kind types.Kind) ([]*types.Envelope, error)
	// Describe names the backend for record metadata.
	Describe() string
	Close() error
}

// CandidateStore keeps the latest version of each confirmed candidate.
type CandidateStore interface {
	// Get returns the candidate with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*types.StoredCandidate, error)
	// FindByText returns the most recently accessed candidate whose name matches text.
	FindByText(ctx context.Context, text string, mode MatchMode) (*types.StoredCandidate, error)
	// Store upserts candidate and returns the stored record.
	Store(ctx context.Context, candidate types.ToolCandidate) (*types.StoredCandidate, error)
	// List returns all candidates, most recently accessed first.
	List(ctx context.Context) ([]types.StoredCandidate, error)
	Close() error
}

// Clock returns the current time. Stores take one so tests can pin it.
type Clock func() time.Time

// NewRecordID returns a time-sortable envelope id.
func NewRecordID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}
