package discovery

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/purelink/internal/fetch"
)

// specificityKeywords mark a URL as pointing at real documentation rather than a homepage.
var specificityKeywords = []string{"docs", "reference", "api-reference", "guide"}

// Verifier checks documentation URLs against a fixed list of likely locations.
type Verifier struct {
	prober fetch.Prober
	logger *zap.Logger
}

// NewVerifier creates a Verifier. A nil logger discards diagnostics.
func NewVerifier(prober fetch.Prober, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{prober: prober, logger: logger.Named("verify")}
}

// CandidateDocURLs lists the URLs probed for docsURL, original first.
func CandidateDocURLs(docsURL, domain string) []string {
	urls := []string{docsURL}
	if domain == "" {
		return urls
	}
	return append(urls,
		"https://"+domain+"/api/docs",
		"https://"+domain+"/docs/api",
		"https://"+domain+"/api-reference",
		"https://"+domain+"/reference",
		"https://docs."+domain+"/api",
		"https://developers."+domain+"/docs",
		"https://developers."+domain+"/reference",
		"https://api."+domain+"/docs",
	)
}

// Verify returns the first reachable documentation URL for docsURL, or "".
// A reachable URL containing a specificity keyword wins over a reachable
// original that lacks one. Probe failures never propagate.
func (v *Verifier) Verify(ctx context.Context, docsURL, domain string) string {
	docsURL = strings.TrimSpace(docsURL)
	if docsURL == "" {
		return ""
	}

	fallback := ""
	for i, u := range CandidateDocURLs(docsURL, domain) {
		if ctx.Err() != nil {
			break
		}
		result, err := v.prober.Probe(ctx, u)
		if err != nil {
			v.logger.Debug("probe failed", zap.String("url", u), zap.Error(err))
			continue
		}
		if !result.OK() {
			continue
		}
		if isSpecific(u) {
			v.logger.Debug("verified documentation url", zap.String("url", u))
			return u
		}
		if i == 0 {
			fallback = u
		}
	}

	if fallback == "" {
		v.logger.Debug("could not verify documentation url", zap.String("url", docsURL))
	}
	return fallback
}

func isSpecific(u string) bool {
	lower := strings.ToLower(u)
	for _, kw := range specificityKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
