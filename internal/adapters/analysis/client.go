// Package analysis talks to the remote content-analysis service
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dlguard/internal/core/version"
	perr "dlguard/internal/platform/errors"
	"dlguard/internal/platform/logger"
	pstrings "dlguard/internal/platform/strings"
)

const (
	defaultSafeCopyPath = "/download/"
	fallbackMessage     = "analysis service error"
	maxErrorBody        = 4 << 10
	maxVerdictBody      = 1 << 20
)

// Options configures the Client
type Options struct {
	// BaseURL is the service root, e.g. http://127.0.0.1:5000. Required
	BaseURL string
	// Timeout bounds one analyze call; 0 leaves it to the caller's context
	Timeout time.Duration
	// UserAgent defaults to dlguard/<version>
	UserAgent string
	// SafeCopyPath is where the service serves cleared copies; defaults to /download/
	SafeCopyPath string
	// HTTPClient overrides the transport, mostly for tests
	HTTPClient *http.Client
}

// Client posts analyze requests. It never retries and never caches
type Client struct {
	http     *http.Client
	base     string
	ua       string
	safePath string
}

// NewClient validates BaseURL and fills defaults
func NewClient(o Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, perr.InvalidArgf("analysis base url %q must be an absolute http(s) URL", o.BaseURL)
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	return &Client{
		http:     hc,
		base:     base,
		ua:       pstrings.FirstNonBlank(o.UserAgent, version.UserAgent()),
		safePath: pstrings.EnsureSlashes(pstrings.FirstNonBlank(o.SafeCopyPath, defaultSafeCopyPath)),
	}, nil
}

// BaseURL returns the normalized service root
func (c *Client) BaseURL() string { return c.base }

// Analyze sends one POST <base>/analyze. Failures come back as
// ErrorCodeRejected (non-2xx, wrapping *StatusError), ErrorCodeUnavailable
// (transport) or ErrorCodeJSON (unreadable success body)
func (c *Client) Analyze(ctx context.Context, rawURL, filename string) (Verdict, error) {
	body, err := json.Marshal(Request{URL: rawURL, Filename: filename})
	if err != nil {
		return Verdict{}, perr.Wrap(err, perr.ErrorCodeJSON, "encode analyze request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/analyze", bytes.NewReader(body))
	if err != nil {
		return Verdict{}, perr.Wrap(err, perr.ErrorCodeUnknown, "build analyze request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.ua)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Verdict{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "analysis service unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	logger.CNamed(ctx, "analysis").Debug().
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Str("filename", filename).
		Msg("analyze response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := statusError(resp)
		return Verdict{}, perr.Wrap(se, perr.ErrorCodeRejected, se.Message)
	}

	var v Verdict
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxVerdictBody)).Decode(&v); err != nil {
		return Verdict{}, perr.Wrap(err, perr.ErrorCodeJSON, "decode analyze response")
	}
	return v, nil
}

// SafeCopyURL is where the service serves its cleared copy of filename
func (c *Client) SafeCopyURL(filename string) string {
	return c.base + c.safePath + url.PathEscape(filename)
}

// statusError reads the service's message or error field, else a generic message
func statusError(resp *http.Response) *StatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	return &StatusError{
		Status:  resp.StatusCode,
		Message: pstrings.FirstNonBlank(eb.Message, eb.Error, fallbackMessage),
	}
}

// AsStatusError extracts a *StatusError from err
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
