package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/jonathan/purelink/internal/store"
	"github.com/jonathan/purelink/internal/types"
)

const selectRecords = `SELECT id, kind, version, created_at, source, candidate_id, raw_input, data, meta FROM records`

// recordRow is one row of the records table
type recordRow struct {
	ID          string
	Kind        string
	Version     int
	CreatedAt   time.Time
	Source      string
	CandidateID string
	RawInput    string
	Data        []byte
	Meta        []byte
}

// Append stores an envelope and returns its id
func (db *DB) Append(ctx context.Context, env *types.Envelope) (string, error) {
	if env.ID == "" {
		env.ID = store.NewRecordID()
	}

	var meta []byte
	if env.Meta != nil {
		var err error
		meta, err = json.Marshal(env.Meta)
		if err != nil {
			return "", fmt.Errorf("failed to marshal meta: %w", err)
		}
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO records (id, kind, version, created_at, source, candidate_id, raw_input, data, meta)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		env.ID, string(env.Kind), env.Version, env.CreatedAt, env.Source, env.CandidateID, env.RawInput, []byte(env.Data), meta,
	)
	if err != nil {
		return "", fmt.Errorf("failed to append record %s: %w", env.ID, err)
	}
	return env.ID, nil
}

// QueryByKindAndCandidate returns envelopes of kind for candidateID, newest first
func (db *DB) QueryByKindAndCandidate(ctx context.Context, kind types.Kind, candidateID string) ([]*types.Envelope, error) {
	rows, err := db.pool.Query(ctx,
		selectRecords+` WHERE kind = $1 AND candidate_id = $2 ORDER BY created_at DESC, seq DESC`,
		string(kind), candidateID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return db.collectEnvelopes(rows)
}

// QueryAll returns every envelope of kind, newest first
func (db *DB) QueryAll(ctx context.Context, kind types.Kind) ([]*types.Envelope, error) {
	rows, err := db.pool.Query(ctx,
		selectRecords+` WHERE kind = $1 ORDER BY created_at DESC, seq DESC`,
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return db.collectEnvelopes(rows)
}

func (db *DB) collectEnvelopes(rows pgx.Rows) ([]*types.Envelope, error) {
	defer rows.Close()

	var envs []*types.Envelope
	for rows.Next() {
		var r recordRow
		if err := rows.Scan(&r.ID, &r.Kind, &r.Version, &r.CreatedAt, &r.Source, &r.CandidateID, &r.RawInput, &r.Data, &r.Meta); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		env, err := r.envelope()
		if err != nil {
			db.logger.Warn("skipping malformed record", zap.String("id", r.ID), zap.Error(err))
			continue
		}
		envs = append(envs, env)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return envs, nil
}

func (r *recordRow) envelope() (*types.Envelope, error) {
	env := &types.Envelope{
		ID:          r.ID,
		Kind:        types.Kind(r.Kind),
		Version:     r.Version,
		CreatedAt:   r.CreatedAt.UTC(),
		Source:      r.Source,
		CandidateID: r.CandidateID,
		RawInput:    r.RawInput,
		Data:        json.RawMessage(r.Data),
	}
	if len(r.Meta) > 0 {
		if err := json.Unmarshal(r.Meta, &env.Meta); err != nil {
			return nil, fmt.Errorf("malformed meta: %w", err)
		}
	}
	if err := env.Check(); err != nil {
		return nil, err
	}
	return env, nil
}
