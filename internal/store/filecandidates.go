package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/jonathan/purelink/internal/types"
)

// CandidatesFileName is the flat-file candidate store.
const CandidatesFileName = "candidates.jsonl"

// FileCandidates is a CandidateStore kept in a single JSONL file that is
// rewritten as a whole on every store.
type FileCandidates struct {
	fs     afero.Fs
	path   string
	now    Clock
	logger *zap.Logger
}

// NewFileCandidates creates a candidate store at dir/candidates.jsonl on fs.
func NewFileCandidates(fs afero.Fs, dir string, now Clock, logger *zap.Logger) (*FileCandidates, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileCandidates{
		fs:     fs,
		path:   filepath.Join(dir, CandidatesFileName),
		now:    clockOrNow(now),
		logger: logger.Named("candidates"),
	}, nil
}

// Get implements CandidateStore.
func (s *FileCandidates) Get(_ context.Context, id string) (*types.StoredCandidate, error) {
	records, err := s.load()
	if err != nil {
		return nil, err
	}
	// Later lines win.
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].CandidateID == id {
			rec := records[i]
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

// FindByText implements CandidateStore.
func (s *FileCandidates) FindByText(ctx context.Context, text string, mode MatchMode) (*types.StoredCandidate, error) {
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
func (s *FileCandidates) Store(_ context.Context, candidate types.ToolCandidate) (*types.StoredCandidate, error) {
	records, err := s.load()
	if err != nil {
		return nil, err
	}

	byID := dedupe(records)
	var existing *types.StoredCandidate
	if rec, ok := byID[candidate.CandidateID]; ok {
		existing = &rec
	}
	updated := types.Touch(existing, candidate, s.now().UTC())
	byID[candidate.CandidateID] = updated

	out := make([]types.StoredCandidate, 0, len(byID))
	for _, rec := range byID {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt) ||
			(out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].CandidateID < out[j].CandidateID)
	})

	if err := s.write(out); err != nil {
		return nil, err
	}
	return &updated, nil
}

// List implements CandidateStore.
func (s *FileCandidates) List(_ context.Context) ([]types.StoredCandidate, error) {
	records, err := s.load()
	if err != nil {
		return nil, err
	}
	byID := dedupe(records)
	out := make([]types.StoredCandidate, 0, len(byID))
	for _, rec := range byID {
		out = append(out, rec)
	}
	sortByAccess(out)
	return out, nil
}

// Close implements CandidateStore.
func (s *FileCandidates) Close() error {
	return nil
}

func (s *FileCandidates) load() ([]types.StoredCandidate, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}

	var records []types.StoredCandidate
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec types.StoredCandidate
		if err := json.Unmarshal(line, &rec); err != nil || rec.CandidateID == "" {
			s.logger.Warn("skipping malformed candidate line", zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *FileCandidates) write(records []types.StoredCandidate) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return fmt.Errorf("failed to encode candidate: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write candidates: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace candidates: %w", err)
	}
	return nil
}

// dedupe keeps the last record per id.
func dedupe(records []types.StoredCandidate) map[string]types.StoredCandidate {
	byID := make(map[string]types.StoredCandidate, len(records))
	for _, rec := range records {
		byID[rec.CandidateID] = rec
	}
	return byID
}

// sortByAccess orders candidates most recently accessed first.
func sortByAccess(records []types.StoredCandidate) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].LastAccessed.Equal(records[j].LastAccessed) {
			return records[i].CandidateID < records[j].CandidateID
		}
		return records[i].LastAccessed.After(records[j].LastAccessed)
	})
}
