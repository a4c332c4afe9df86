package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/purelink/internal/store"
	"github.com/jonathan/purelink/internal/types"
)

const candidateColumns = `candidate_id, tool_name, developer, website_domain, website_url, logo_url,
	confidence, notes, created_at, last_accessed, access_count`

// Get returns the stored candidate with id
func (db *DB) Get(ctx context.Context, id string) (*types.StoredCandidate, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM tool_candidates WHERE candidate_id = $1`, id)

	rec, err := scanCandidate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get candidate %s: %w", id, err)
	}
	return rec, nil
}

// FindByText returns the most recently accessed candidate whose name matches text
func (db *DB) FindByText(ctx context.Context, text string, mode store.MatchMode) (*types.StoredCandidate, error) {
	all, err := db.List(ctx)
	if err != nil {
		return nil, err
	}
	if match, ok := store.FindMatch(text, all, mode); ok {
		return match, nil
	}
	return nil, store.ErrNotFound
}

// Store upserts a candidate, preserving created_at and bumping access_count on conflict
func (db *DB) Store(ctx context.Context, c types.ToolCandidate) (*types.StoredCandidate, error) {
	now := db.now().UTC()
	row := db.pool.QueryRow(ctx,
		`INSERT INTO tool_candidates (`+candidateColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9, 1)
		 ON CONFLICT (candidate_id) DO UPDATE SET
			tool_name = EXCLUDED.tool_name,
			developer = EXCLUDED.developer,
			website_domain = EXCLUDED.website_domain,
			website_url = EXCLUDED.website_url,
			logo_url = EXCLUDED.logo_url,
			confidence = EXCLUDED.confidence,
			notes = EXCLUDED.notes,
			last_accessed = EXCLUDED.last_accessed,
			access_count = tool_candidates.access_count + 1
		 RETURNING `+candidateColumns,
		c.CandidateID, c.ToolName, c.Developer, c.WebsiteDomain, c.WebsiteURL, c.LogoURL,
		c.Confidence, c.Notes, now,
	)

	rec, err := scanCandidate(row)
	if err != nil {
		return nil, fmt.Errorf("failed to store candidate %s: %w", c.CandidateID, err)
	}
	return rec, nil
}

// List returns all candidates, most recently accessed first
func (db *DB) List(ctx context.Context) ([]types.StoredCandidate, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+candidateColumns+` FROM tool_candidates ORDER BY last_accessed DESC, candidate_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var out []types.StoredCandidate
	for rows.Next() {
		rec, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}
	return out, nil
}

func scanCandidate(row pgx.Row) (*types.StoredCandidate, error) {
	var rec types.StoredCandidate
	err := row.Scan(
		&rec.CandidateID, &rec.ToolName, &rec.Developer, &rec.WebsiteDomain, &rec.WebsiteURL, &rec.LogoURL,
		&rec.Confidence, &rec.Notes, &rec.CreatedAt, &rec.LastAccessed, &rec.AccessCount,
	)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.LastAccessed = rec.LastAccessed.UTC()
	return &rec, nil
}
