package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/purelink/internal/types"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name  string
		query string
		tool  string
		mode  MatchMode
		want  bool
	}{
		{"exact", "hibob", "HiBob", MatchPermissive, true},
		{"prefix", "hi", "HiBob", MatchPermissive, true},
		{"contained", "bob", "HiBob", MatchPermissive, true},
		{"short contained", "ob", "HiBob", MatchPermissive, true},
		{"short contained middle", "bo", "HiBob", MatchPermissive, true},
		{"short name inside input", "x app", "X", MatchPermissive, true},
		{"name inside input", "hibob hr platform", "HiBob", MatchPermissive, true},
		{"no overlap", "slack", "HiBob", MatchPermissive, false},
		{"empty query", "", "HiBob", MatchPermissive, false},
		{"empty name", "hibob", "", MatchPermissive, false},
		{"strict exact", "hibob", "HiBob", MatchStrict, true},
		{"strict prefix", "hi", "HiBob", MatchStrict, false},
		{"strict contained", "ob", "HiBob", MatchStrict, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.query, tt.tool, tt.mode))
		})
	}
}

func TestFindMatch_FirstInOrderWins(t *testing.T) {
	now := time.Now()
	ordered := []types.StoredCandidate{
		{ToolCandidate: types.ToolCandidate{CandidateID: "godaddy-1", ToolName: "GoDaddy"}, LastAccessed: now},
		{ToolCandidate: types.ToolCandidate{CandidateID: "google-1", ToolName: "Google"}, LastAccessed: now.Add(-time.Hour)},
	}

	match, ok := FindMatch("  GO ", ordered, MatchPermissive)
	require.True(t, ok)
	assert.Equal(t, "godaddy-1", match.CandidateID)

	_, ok = FindMatch("go", ordered, MatchStrict)
	assert.False(t, ok)
}

func TestParseMatchMode(t *testing.T) {
	mode, err := ParseMatchMode("")
	require.NoError(t, err)
	assert.Equal(t, MatchPermissive, mode)

	mode, err = ParseMatchMode("STRICT")
	require.NoError(t, err)
	assert.Equal(t, MatchStrict, mode)

	_, err = ParseMatchMode("fuzzy")
	assert.Error(t, err)
}
