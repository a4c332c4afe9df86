package resolver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/purelink/internal/identity"
	"github.com/jonathan/purelink/internal/oracle"
)

func TestSanitizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hibob.com", "hibob.com"},
		{"https://www.HiBob.com/features", "www.hibob.com"},
		{"HTTP://example.com", "example.com"},
		{"  slack.com/ ", "slack.com"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeDomain(tt.in), tt.in)
	}
}

func TestNormalizeCandidate_DerivesDomainFromURL(t *testing.T) {
	c := NormalizeCandidate(oracle.RawCandidate{
		ToolName:   "  Slack ",
		Developer:  " Salesforce ",
		WebsiteURL: "https://slack.com/intl/en-gb",
		Confidence: oracle.Number{Value: 1.7, Valid: true},
	})

	assert.Equal(t, "Slack", c.ToolName)
	assert.Equal(t, "Salesforce", c.Developer)
	assert.Equal(t, "slack.com", c.WebsiteDomain)
	assert.Equal(t, "https://slack.com/intl/en-gb", c.WebsiteURL)
	assert.Equal(t, "https://logo.clearbit.com/slack.com", c.LogoURL)
	assert.Equal(t, 1.0, c.Confidence)
}

func TestNormalizeCandidate_KeepsGivenLogoAndDefaultsConfidence(t *testing.T) {
	c := NormalizeCandidate(oracle.RawCandidate{ToolName: "X", WebsiteDomain: "x.com", LogoURL: "https://x.com/logo.png"})

	assert.Equal(t, "https://x.com/logo.png", c.LogoURL)
	assert.Equal(t, 0.0, c.Confidence)
	assert.NoError(t, c.Validate())
}

func TestNormalizeCandidate_NoDomain(t *testing.T) {
	c := NormalizeCandidate(oracle.RawCandidate{ToolName: "Internal Tool"})

	assert.Empty(t, c.WebsiteDomain)
	assert.Empty(t, c.WebsiteURL)
	assert.Empty(t, c.LogoURL)
	assert.Regexp(t, `^internal-tool-[0-9a-f]{12}$`, c.CandidateID)
}

func TestNormalizeCandidate_BlankNameKeepsDisplayFallback(t *testing.T) {
	c := NormalizeCandidate(oracle.RawCandidate{ToolName: "  ", WebsiteDomain: "acme.io"})

	assert.Equal(t, UnknownToolName, c.ToolName)
	assert.Equal(t, identity.CandidateID("", "acme.io"), c.CandidateID)
	assert.NotEqual(t, identity.CandidateID(UnknownToolName, "acme.io"), c.CandidateID)
}

func TestNormalize_Totality(t *testing.T) {
	inputs := []*oracle.RawResolution{
		nil,
		{},
		{SelectedIndex: oracle.Number{Value: 5, Valid: true}},
		{Candidates: []oracle.RawCandidate{{ToolName: "A"}, {ToolName: "B"}}, SelectedIndex: oracle.Number{Value: 7, Valid: true}},
		{Candidates: []oracle.RawCandidate{{ToolName: "A"}, {ToolName: "B"}}, SelectedIndex: oracle.Number{Value: -1, Valid: true}},
		{Candidates: []oracle.RawCandidate{{}}, SelectedIndex: oracle.Number{Value: math.NaN(), Valid: true}},
	}

	for _, raw := range inputs {
		res := Normalize(raw)
		require.NotEmpty(t, res.Candidates)
		assert.GreaterOrEqual(t, res.SelectedIndex, 0)
		assert.Less(t, res.SelectedIndex, len(res.Candidates))
		for _, c := range res.Candidates {
			assert.NoError(t, c.Validate())
		}
	}
}

func TestNormalize_KeepsSelectionAndCitations(t *testing.T) {
	res := Normalize(&oracle.RawResolution{
		Candidates:     []oracle.RawCandidate{{ToolName: "Facebook"}, {ToolName: "Meta Business Suite"}},
		SelectedIndex:  oracle.Number{Value: 1, Valid: true},
		Disambiguation: " FB could mean the app or the business suite ",
		Citations:      []string{"https://meta.com", " ", ""},
	})

	assert.Equal(t, 1, res.SelectedIndex)
	assert.Equal(t, "Meta Business Suite", res.Selected().ToolName)
	assert.Equal(t, "FB could mean the app or the business suite", res.Disambiguation)
	assert.Equal(t, []string{"https://meta.com"}, res.Citations)
}
