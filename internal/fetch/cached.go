package fetch

import (
	"context"
)

// CachedProber remembers probe outcomes for the life of a run, so the same
// guessed URL is requested at most once across methods of one tool.
type CachedProber struct {
	inner   Prober
	results map[string]cachedProbe
}

type cachedProbe struct {
	result *Result
	err    error
}

// NewCachedProber wraps inner.
func NewCachedProber(inner Prober) *CachedProber {
	return &CachedProber{inner: inner, results: make(map[string]cachedProbe)}
}

// Probe implements Prober. Context errors are not cached.
func (c *CachedProber) Probe(ctx context.Context, urlStr string) (*Result, error) {
	if hit, ok := c.results[urlStr]; ok {
		return hit.result, hit.err
	}
	result, err := c.inner.Probe(ctx, urlStr)
	if ctx.Err() == nil {
		c.results[urlStr] = cachedProbe{result: result, err: err}
	}
	return result, err
}
