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

	"github.com/jonathan/purelink/internal/schemas"
	"github.com/jonathan/purelink/internal/types"
)

// File names used by the flat-file backend
const (
	IndexFileName = "index.jsonl"
	LogsDirName   = "logs"
)

// maxLineSize bounds a single envelope line in the index.
const maxLineSize = 4 << 20

// FileLog is a RecordLog over newline-delimited JSON. Each envelope is appended
// to index.jsonl and also written as logs/<id>.json.
type FileLog struct {
	fs     afero.Fs
	dir    string
	logger *zap.Logger
}

// NewFileLog creates a file log rooted at dir on fs.
func NewFileLog(fs afero.Fs, dir string, logger *zap.Logger) (*FileLog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := fs.MkdirAll(filepath.Join(dir, LogsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &FileLog{fs: fs, dir: dir, logger: logger.Named("filelog")}, nil
}

// Append implements RecordLog.
func (l *FileLog) Append(_ context.Context, env *types.Envelope) (string, error) {
	if env.ID == "" {
		env.ID = NewRecordID()
	}

	line, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}

	f, err := l.fs.OpenFile(l.indexPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open index: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to append envelope: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close index: %w", err)
	}

	pretty, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}
	if err := afero.WriteFile(l.fs, filepath.Join(l.dir, LogsDirName, env.ID+".json"), pretty, 0o644); err != nil {
		return "", fmt.Errorf("failed to write record file: %w", err)
	}

	return env.ID, nil
}

// QueryByKindAndCandidate implements RecordLog.
func (l *FileLog) QueryByKindAndCandidate(_ context.Context, kind types.Kind, candidateID string) ([]*types.Envelope, error) {
	return l.scan(func(env *types.Envelope) bool {
		return env.Kind == kind && env.CandidateID == candidateID
	})
}

// QueryAll implements RecordLog.
func (l *FileLog) QueryAll(_ context.Context, kind types.Kind) ([]*types.Envelope, error) {
	return l.scan(func(env *types.Envelope) bool {
		return env.Kind == kind
	})
}

// Describe implements RecordLog.
func (l *FileLog) Describe() string {
	return "jsonl:" + l.indexPath()
}

// Close implements RecordLog.
func (l *FileLog) Close() error {
	return nil
}

func (l *FileLog) indexPath() string {
	return filepath.Join(l.dir, IndexFileName)
}

// scan reads the index and returns matching envelopes newest first.
// Lines that fail to parse are skipped.
func (l *FileLog) scan(keep func(*types.Envelope) bool) ([]*types.Envelope, error) {
	data, err := afero.ReadFile(l.fs, l.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	var envs []*types.Envelope
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := schemas.ValidateBytes(schemas.Envelope, line); err != nil {
			l.logger.Warn("skipping malformed index line", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		env, err := types.DecodeEnvelope(line)
		if err != nil {
			l.logger.Warn("skipping malformed index line", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		if keep(env) {
			envs = append(envs, env)
		}
	}
	if err := scanner.Err(); err != nil {
		l.logger.Warn("index scan stopped early", zap.Int("line", lineNo), zap.Error(err))
	}

	sortNewestFirst(envs)
	return envs, nil
}

// sortNewestFirst orders envelopes by CreatedAt descending; among equal
// timestamps the later-written envelope comes first.
func sortNewestFirst(envs []*types.Envelope) {
	for i, j := 0, len(envs)-1; i < j; i, j = i+1, j-1 {
		envs[i], envs[j] = envs[j], envs[i]
	}
	sort.SliceStable(envs, func(i, j int) bool {
		return envs[i].CreatedAt.After(envs[j].CreatedAt)
	})
}
