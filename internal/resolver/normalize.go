package resolver

import (
	"math"
	"regexp"
	"strings"

	"github.com/jonathan/purelink/internal/identity"
	"github.com/jonathan/purelink/internal/oracle"
	"github.com/jonathan/purelink/internal/types"
)

// LogoServiceURL is the logo service keyed by domain.
const LogoServiceURL = "https://logo.clearbit.com/"

// Sentinel candidate values
const (
	UnknownToolName = "Unknown"
	UnknownNote     = "No candidates returned by model"
)

var schemePrefix = regexp.MustCompile(`(?i)^https?://`)

// SanitizeDomain reduces a URL or host to a bare lowercase host.
func SanitizeDomain(s string) string {
	s = schemePrefix.ReplaceAllString(strings.TrimSpace(s), "")
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(s)
}

// LogoURL returns the logo service URL for domain, or "" without a domain.
func LogoURL(domain string) string {
	if domain == "" {
		return ""
	}
	return LogoServiceURL + domain
}

// SentinelCandidate is substituted when the model returns no candidates.
func SentinelCandidate() types.ToolCandidate {
	return types.ToolCandidate{
		CandidateID: identity.UnknownCandidateID,
		ToolName:    UnknownToolName,
		Confidence:  0,
		Notes:       UnknownNote,
	}
}

// NormalizeCandidate fills derived fields and assigns the candidate id.
func NormalizeCandidate(raw oracle.RawCandidate) types.ToolCandidate {
	trimmed := strings.TrimSpace(raw.ToolName)
	name := trimmed
	if name == "" {
		name = UnknownToolName
	}
	websiteURL := strings.TrimSpace(raw.WebsiteURL)

	domain := SanitizeDomain(raw.WebsiteDomain)
	if domain == "" {
		domain = SanitizeDomain(websiteURL)
	}

	logo := strings.TrimSpace(raw.LogoURL)
	if logo == "" {
		logo = LogoURL(domain)
	}
	if websiteURL == "" && domain != "" {
		websiteURL = "https://" + domain
	}

	return types.ToolCandidate{
		CandidateID:   identity.CandidateID(trimmed, domain),
		ToolName:      name,
		Developer:     strings.TrimSpace(raw.Developer),
		WebsiteDomain: domain,
		WebsiteURL:    websiteURL,
		LogoURL:       logo,
		Confidence:    clamp01(raw.Confidence.Or(0)),
		Notes:         strings.TrimSpace(raw.Notes),
	}
}

// Normalize turns a raw model answer into a resolution that always has at
// least one candidate and a valid selected index.
func Normalize(raw *oracle.RawResolution) *types.ToolResolution {
	res := &types.ToolResolution{Source: types.SourceLLM}
	if raw == nil {
		raw = &oracle.RawResolution{}
	}

	for _, c := range raw.Candidates {
		res.Candidates = append(res.Candidates, NormalizeCandidate(c))
	}
	if len(res.Candidates) == 0 {
		res.Candidates = []types.ToolCandidate{SentinelCandidate()}
	}

	res.SelectedIndex = ClampIndex(raw.SelectedIndex.Or(0), len(res.Candidates))
	res.Disambiguation = strings.TrimSpace(raw.Disambiguation)
	for _, c := range raw.Citations {
		if c = strings.TrimSpace(c); c != "" {
			res.Citations = append(res.Citations, c)
		}
	}
	return res
}

// ClampIndex returns idx as an int if it is a valid index into n items, else 0.
func ClampIndex(idx float64, n int) int {
	if math.IsNaN(idx) || idx < 0 || idx >= float64(n) {
		return 0
	}
	return int(idx)
}

func clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
