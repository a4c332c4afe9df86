package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/jonathan/purelink/internal/types"
)

// BoltFileName is the default bbolt candidate store file.
const BoltFileName = "candidates.db"

var candidatesBucket = []byte("candidates")

// BoltCandidates is a CandidateStore in an embedded bbolt database keyed by candidate id.
type BoltCandidates struct {
	db  *bolt.DB
	now Clock
}

// OpenBoltCandidates opens or creates the store at path.
func OpenBoltCandidates(path string, now Clock) (*BoltCandidates, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("candidate store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure candidate store dir: %w", err)
	}
	db, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open candidate store: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(candidatesBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure candidates bucket: %w", err)
	}
	return &BoltCandidates{db: db, now: clockOrNow(now)}, nil
}

// Get implements CandidateStore.
func (s *BoltCandidates) Get(_ context.Context, id string) (*types.StoredCandidate, error) {
	var rec *types.StoredCandidate
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		rec, err = readCandidate(tx.Bucket(candidatesBucket), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// FindByText implements CandidateStore.
func (s *BoltCandidates) FindByText(ctx context.Context, text string, mode MatchMode) (*types.StoredCandidate, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if match, ok := FindMatch(text, all, mode); ok {
		return match, nil
	}
	return nil, ErrNotFound
}

// Store implements CandidateStore.
func (s *BoltCandidates) Store(_ context.Context, candidate types.ToolCandidate) (*types.StoredCandidate, error) {
	var updated types.StoredCandidate
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(candidatesBucket)
		existing, err := readCandidate(bucket, candidate.CandidateID)
		if err != nil {
			return err
		}
		updated = types.Touch(existing, candidate, s.now().UTC())
		value, err := json.Marshal(&updated)
		if err != nil {
			return fmt.Errorf("encode candidate: %w", err)
		}
		return bucket.Put([]byte(candidate.CandidateID), value)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// List implements CandidateStore. Undecodable values are skipped.
func (s *BoltCandidates) List(_ context.Context) ([]types.StoredCandidate, error) {
	var out []types.StoredCandidate
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(candidatesBucket).ForEach(func(_, value []byte) error {
			var rec types.StoredCandidate
			if err := json.Unmarshal(value, &rec); err != nil {
				return nil
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortByAccess(out)
	return out, nil
}

// Close implements CandidateStore.
func (s *BoltCandidates) Close() error {
	return s.db.Close()
}

func readCandidate(bucket *bolt.Bucket, id string) (*types.StoredCandidate, error) {
	value := bucket.Get([]byte(id))
	if value == nil {
		return nil, nil
	}
	var rec types.StoredCandidate
	if err := json.Unmarshal(value, &rec); err != nil {
		// A corrupt value is treated as absent and overwritten on the next store.
		return nil, nil
	}
	return &rec, nil
}
