package filename

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dlguard/internal/platform/logger"
)

// Source names the evidence a resolved filename came from
type Source string

// Resolution sources, in the order they are tried
const (
	SourceDeclared    Source = "declared"
	SourceDisposition Source = "disposition"
	SourcePath        Source = "path"
	SourceQuery       Source = "query"
	SourceHost        Source = "host"
	SourceFallback    Source = "fallback"
)

// Resolution is the outcome of Resolve
type Resolution struct {
	Name   string
	Source Source
}

// Options configures a Resolver
type Options struct {
	// HTTPClient performs the HEAD probe. Defaults to a client with ProbeTimeout
	HTTPClient *http.Client
	// ProbeTimeout bounds the HEAD probe; 0 means 5s
	ProbeTimeout time.Duration
	// UserAgent is sent on the probe when set
	UserAgent string
	// DisableProbe skips the network step entirely
	DisableProbe bool
}

// Resolver picks the best available name for a download
type Resolver struct {
	hc      *http.Client
	timeout time.Duration
	ua      string
	noProbe bool
}

// NewResolver constructs a Resolver
func NewResolver(o Options) *Resolver {
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = 5 * time.Second
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.ProbeTimeout}
	}
	return &Resolver{hc: hc, timeout: o.ProbeTimeout, ua: o.UserAgent, noProbe: o.DisableProbe}
}

// Resolve never fails: it walks declared name, Content-Disposition from a HEAD
// probe, URL path, filename= query parameter and host, ending at Fallback.
// The returned name is not sanitized
func (r *Resolver) Resolve(ctx context.Context, declared, rawURL string) Resolution {
	res := r.resolve(ctx, declared, rawURL)
	logger.CNamed(ctx, "filename").Debug().
		Str("source", string(res.Source)).
		Str("filename", res.Name).
		Msg("filename resolved")
	return res
}

func (r *Resolver) resolve(ctx context.Context, declared, rawURL string) Resolution {
	if strings.TrimSpace(declared) != "" {
		if name := Base(declared); strings.TrimSpace(name) != "" {
			return Resolution{name, SourceDeclared}
		}
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !u.IsAbs() {
		return Resolution{Fallback, SourceFallback}
	}

	if name, ok := r.probe(ctx, u); ok {
		return Resolution{name, SourceDisposition}
	}
	if name, ok := fromPath(u); ok {
		return Resolution{name, SourcePath}
	}
	if name, ok := fromQuery(u); ok {
		return Resolution{name, SourceQuery}
	}
	if host := u.Hostname(); strings.TrimSpace(host) != "" {
		return Resolution{strings.ReplaceAll(host, ".", "_") + ".bin", SourceHost}
	}
	return Resolution{Fallback, SourceFallback}
}

// probe issues a HEAD request and reads Content-Disposition. Every failure is a miss
func (r *Resolver) probe(ctx context.Context, u *url.URL) (string, bool) {
	if r.noProbe || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return "", false
	}
	if r.ua != "" {
		req.Header.Set("User-Agent", r.ua)
	}
	resp, err := r.hc.Do(req)
	if err != nil {
		logger.CNamed(ctx, "filename").Debug().Err(err).Msg("head probe failed")
		return "", false
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", false
	}
	cd := resp.Header.Get("Content-Disposition")
	if cd == "" {
		return "", false
	}
	return FromDisposition(cd)
}

// fromPath takes the last path segment when it has a '.' past position 0
func fromPath(u *url.URL) (string, bool) {
	p := u.EscapedPath()
	seg := p[strings.LastIndex(p, "/")+1:]
	if dec, err := url.PathUnescape(seg); err == nil {
		seg = dec
	}
	if strings.TrimSpace(seg) == "" || strings.Index(seg, ".") <= 0 {
		return "", false
	}
	return seg, true
}

// fromQuery reads the first filename= parameter. '+' stays literal
func fromQuery(u *url.URL) (string, bool) {
	for pair := range strings.SplitSeq(u.RawQuery, "&") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k != "filename" || v == "" {
			continue
		}
		dec, err := url.PathUnescape(v)
		if err != nil {
			return "", false
		}
		return dec, true
	}
	return "", false
}
