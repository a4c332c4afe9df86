package store

import (
	"fmt"
	"strings"

	"github.com/jonathan/purelink/internal/types"
)

// MatchMode selects how free text is compared to stored tool names.
type MatchMode string

// Match modes
const (
	// MatchPermissive accepts exact, prefix and substring matches in either direction.
	MatchPermissive MatchMode = "permissive"
	// MatchStrict accepts only exact matches of the normalized name.
	MatchStrict MatchMode = "strict"
)

// ParseMatchMode converts a configuration value into a MatchMode.
// An empty value selects MatchPermissive.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchPermissive:
		return MatchPermissive, nil
	case MatchStrict:
		return MatchStrict, nil
	default:
		return "", fmt.Errorf("unknown match mode %q", s)
	}
}

// NormalizeQuery lowercases and trims free text for matching.
func NormalizeQuery(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Matches reports whether query (already normalized) refers to the tool named name.
func Matches(query, name string, mode MatchMode) bool {
	name = NormalizeQuery(name)
	if query == "" || name == "" {
		return false
	}
	if query == name {
		return true
	}
	if mode == MatchStrict {
		return false
	}

	return strings.Contains(name, query) ||
		strings.Contains(query, name) ||
		strings.HasPrefix(name, query)
}

// FindMatch returns the first candidate in ordered whose name matches text.
// ordered must already be sorted newest first.
func FindMatch(text string, ordered []types.StoredCandidate, mode MatchMode) (*types.StoredCandidate, bool) {
	query := NormalizeQuery(text)
	for i := range ordered {
		if Matches(query, ordered[i].ToolName, mode) {
			return &ordered[i], true
		}
	}
	return nil, false
}
