// Package fetch provides lightweight HTTP existence checks for documentation URLs.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the per-request probe timeout.
const DefaultTimeout = 5 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; PureLink/1.0)"

// maxRedirects bounds how many redirects a probe follows.
const maxRedirects = 10

// Result holds the outcome of a probe.
type Result struct {
	URL        string
	FinalURL   string
	StatusCode int
}

// OK reports whether the probe ended in HTTP 200.
func (r *Result) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}

// Error represents an error during a probe.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("probe error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("probe error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures probe behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// Client overrides the HTTP client; its Timeout is replaced by Timeout.
	Client *http.Client
}

// DefaultOptions returns sensible defaults for probing.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Prober checks whether URLs exist.
type Prober interface {
	Probe(ctx context.Context, urlStr string) (*Result, error)
}

// HTTPProber issues HEAD requests, following redirects.
type HTTPProber struct {
	client    *http.Client
	userAgent string
}

// NewHTTPProber creates a prober from opts.
func NewHTTPProber(opts *Options) *HTTPProber {
	if opts == nil {
		opts = DefaultOptions()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client := &http.Client{}
	if opts.Client != nil {
		c := *opts.Client
		client = &c
	}
	client.Timeout = timeout
	client.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}

	return &HTTPProber{client: client, userAgent: userAgent}
}

// Probe sends a HEAD request to urlStr. A non-200 status is not an error;
// callers check Result.OK.
func (p *HTTPProber) Probe(ctx context.Context, urlStr string) (*Result, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") || parsedURL.Host == "" {
		return nil, &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, urlStr, nil)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to create request",
			Cause:   err,
		}
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	return &Result{
		URL:        urlStr,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}, nil
}
