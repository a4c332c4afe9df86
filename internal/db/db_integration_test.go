//go:build integration
// +build integration

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/purelink/internal/store"
	"github.com/jonathan/purelink/internal/types"
)

func setupTestDB(t *testing.T, opts ...Option) *DB {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Connect(ctx, dbURL, opts...)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	return db
}

func TestRecordLog_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	candidateID := "tool-" + uuid.NewString()[:8]
	base := time.Now().UTC().Truncate(time.Second)

	for i, name := range []string{"Old", "New"} {
		env, err := types.NewDiscoveryEnvelope("", base.Add(time.Duration(i)*time.Hour), candidateID, name, &types.MethodDiscovery{
			Methods:         []types.OutputMethod{{MethodID: name + "-api", MethodType: types.MethodAPI, MethodName: name}},
			DiscoverySource: types.DiscoverySourceLLM,
			ExpiresAt:       base.Add(types.DefaultMethodTTL),
		}, map[string]any{"discoveryMethod": "llm"})
		require.NoError(t, err)

		id, err := db.Append(ctx, env)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	}

	envs, err := db.QueryByKindAndCandidate(ctx, types.KindDiscoverMethods, candidateID)
	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.Equal(t, "New", envs[0].RawInput)
	assert.Equal(t, "llm", envs[0].Meta["discoveryMethod"])

	rec, err := store.NewLookup(db, nil).FreshDiscovery(ctx, candidateID, base.Add(29*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "New", rec.Discovery.Methods[0].MethodName)
}

func TestCandidateStore_Integration(t *testing.T) {
	clock := time.Now().UTC().Truncate(time.Millisecond)
	db := setupTestDB(t, WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	defer db.Close()
	ctx := context.Background()

	c := types.ToolCandidate{
		CandidateID:   "hibob-" + uuid.NewString()[:12],
		ToolName:      "HiBob " + uuid.NewString()[:6],
		WebsiteDomain: "hibob.com",
		Confidence:    1,
	}

	first, err := db.Store(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 1, first.AccessCount)

	second, err := db.Store(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 2, second.AccessCount)
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))
	assert.True(t, second.LastAccessed.After(first.LastAccessed))

	got, err := db.Get(ctx, c.CandidateID)
	require.NoError(t, err)
	assert.Equal(t, c.ToolName, got.ToolName)

	found, err := db.FindByText(ctx, c.ToolName, store.MatchStrict)
	require.NoError(t, err)
	assert.Equal(t, c.CandidateID, found.CandidateID)

	_, err = db.Get(ctx, "missing-"+uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
