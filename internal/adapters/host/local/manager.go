// Package local is an in-process download host: it fetches URLs into a
// directory and raises a created event for every transfer before any byte is written
package local

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"dlguard/internal/core/filename"
	perr "dlguard/internal/platform/errors"
	"dlguard/internal/platform/logger"
	pstrings "dlguard/internal/platform/strings"

	dom "dlguard/internal/services/guard/domain"

	"github.com/google/uuid"
)

// State is the lifecycle position of a download
type State string

// Download states
const (
	StateCreated    State = "created"
	StateInProgress State = "in_progress"
	StateComplete   State = "complete"
	StateCancelled  State = "cancelled"
	StateFailed     State = "failed"
)

// Terminal reports whether the transfer can no longer change
func (s State) Terminal() bool {
	return s == StateComplete || s == StateCancelled || s == StateFailed
}

const partSuffix = ".part"

// Download is a snapshot of one transfer
type Download struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	Filename  string     `json:"filename"`
	Path      string     `json:"path,omitempty"`
	Origin    dom.Origin `json:"origin"`
	State     State      `json:"state"`
	Bytes     int64      `json:"bytes"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Options configures a Manager
type Options struct {
	// Dir receives finished files; created when missing
	Dir string
	// HTTPClient performs transfers. Defaults to a client without a timeout
	HTTPClient *http.Client
	// UserAgent is sent on every transfer when set
	UserAgent string
}

type entry struct {
	d      Download
	bytes  atomic.Int64
	cancel context.CancelFunc
}

type subscriber func(context.Context, dom.DownloadEvent)

// Manager implements domain.Host and domain.OriginTagger
type Manager struct {
	dir string
	hc  *http.Client
	ua  string

	mu        sync.Mutex
	downloads map[string]*entry
	reserved  sync.Map
	subs      map[int]subscriber
	nextSub   int

	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	now   func() time.Time
	newID func() string
}

// NewManager creates the download directory and returns an idle Manager
func NewManager(o Options) (*Manager, error) {
	if pstrings.Blank(o.Dir) {
		return nil, perr.InvalidArgf("download dir is required")
	}
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "create download dir %s", o.Dir)
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	base, stop := context.WithCancel(context.Background())
	return &Manager{
		dir:       o.Dir,
		hc:        hc,
		ua:        o.UserAgent,
		downloads: map[string]*entry{},
		subs:      map[int]subscriber{},
		base:      base,
		stop:      stop,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// Dir is where finished files land
func (m *Manager) Dir() string { return m.dir }

// TagsOrigin is always true: Submit's Origin is copied onto the event it raises
func (m *Manager) TagsOrigin() bool { return true }

// Subscribe registers fn for created events
func (m *Manager) Subscribe(fn func(context.Context, dom.DownloadEvent)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// Subscribers reports the number of registered callbacks
func (m *Manager) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Start begins a user download
func (m *Manager) Start(ctx context.Context, rawURL, name string) (string, error) {
	return m.Submit(ctx, dom.SubmitRequest{URL: rawURL, Filename: name, Origin: dom.OriginUser})
}

// Submit registers a transfer, delivers its created event to every
// subscriber on the calling goroutine, then starts fetching unless a
// subscriber cancelled or erased it meanwhile
func (m *Manager) Submit(ctx context.Context, req dom.SubmitRequest) (string, error) {
	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", perr.WithField(perr.InvalidArgf("url must be an absolute http or https URL"), "url")
	}
	origin := req.Origin
	if origin == "" {
		origin = dom.OriginUser
	}

	now := m.now().UTC()
	e := &entry{d: Download{
		ID:        m.newID(),
		URL:       u.String(),
		Filename:  req.Filename,
		Origin:    origin,
		State:     StateCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}}

	m.mu.Lock()
	if m.base.Err() != nil {
		m.mu.Unlock()
		return "", perr.Unavailablef("download host is shut down")
	}
	m.downloads[e.d.ID] = e
	subs := make([]subscriber, 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	log := logger.CNamed(ctx, "host").With().Str("download_id", e.d.ID).Str("url", e.d.URL).Logger()
	log.Debug().Str("origin", string(origin)).Msg("download created")

	ev := dom.DownloadEvent{ID: e.d.ID, URL: e.d.URL, Filename: req.Filename, Origin: origin}
	for _, fn := range subs {
		fn(ctx, ev)
	}

	m.mu.Lock()
	if cur, ok := m.downloads[e.d.ID]; !ok || cur.d.State != StateCreated {
		m.mu.Unlock()
		log.Debug().Msg("download stopped before transfer")
		return e.d.ID, nil
	}
	if m.base.Err() != nil {
		e.d.State = StateCancelled
		m.mu.Unlock()
		return e.d.ID, perr.Unavailablef("download host is shut down")
	}
	tctx, cancel := context.WithCancel(m.base)
	e.cancel = cancel
	e.d.State = StateInProgress
	e.d.UpdatedAt = m.now().UTC()
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer cancel()
		m.transfer(tctx, e)
	}()
	return e.d.ID, nil
}

// Cancel stops a transfer and drops its partial file. Cancelling a cancelled download is a no-op
func (m *Manager) Cancel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.downloads[id]
	if !ok {
		return perr.NotFoundf("download %s not found", id)
	}
	switch e.d.State {
	case StateCancelled:
		return nil
	case StateComplete, StateFailed:
		return perr.Conflictf("download %s is already %s", id, e.d.State)
	}
	e.d.State = StateCancelled
	e.d.UpdatedAt = m.now().UTC()
	if e.cancel != nil {
		e.cancel()
	}
	return nil
}

// Erase forgets a download, cancelling it first when still active. Finished files stay on disk
func (m *Manager) Erase(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.downloads[id]
	active := ok && !e.d.State.Terminal()
	m.mu.Unlock()
	if !ok {
		return perr.NotFoundf("download %s not found", id)
	}
	if active {
		if err := m.Cancel(ctx, id); err != nil && !perr.IsCode(err, perr.ErrorCodeConflict) {
			return err
		}
	}
	m.mu.Lock()
	delete(m.downloads, id)
	m.mu.Unlock()
	return nil
}

// Get returns one download
func (m *Manager) Get(id string) (Download, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.downloads[id]
	if !ok {
		return Download{}, perr.NotFoundf("download %s not found", id)
	}
	return e.snapshot(), nil
}

// List returns every known download, oldest first
func (m *Manager) List() []Download {
	m.mu.Lock()
	out := make([]Download, 0, len(m.downloads))
	for _, e := range m.downloads {
		out = append(out, e.snapshot())
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Wait blocks until every running transfer has returned
func (m *Manager) Wait() { m.wg.Wait() }

// Close cancels every transfer and waits for them. Later submissions fail
func (m *Manager) Close() error {
	m.mu.Lock()
	m.stop()
	m.mu.Unlock()
	m.wg.Wait()
	return nil
}

func (e *entry) snapshot() Download {
	d := e.d
	d.Bytes = e.bytes.Load()
	return d
}

// transfer streams the body into <name>.part and renames it on success
func (m *Manager) transfer(ctx context.Context, e *entry) {
	ctx = logger.WithDownload(ctx, e.d.ID, e.d.URL)
	log := logger.CNamed(ctx, "host")

	final, err := m.fetch(ctx, e)
	switch {
	case err == nil:
		m.finish(e, StateComplete, final, "")
		log.Info().Str("path", final).Int64("bytes", e.bytes.Load()).Msg("download complete")
	case ctx.Err() != nil:
		m.finish(e, StateCancelled, "", "")
		log.Info().Msg("download cancelled")
	default:
		m.finish(e, StateFailed, "", err.Error())
		log.Warn().Err(err).Msg("download failed")
	}
}

func (m *Manager) fetch(ctx context.Context, e *entry) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.d.URL, nil)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeInvalidArgument, "build request")
	}
	if m.ua != "" {
		req.Header.Set("User-Agent", m.ua)
	}
	resp, err := m.hc.Do(req)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "fetch failed")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", perr.Rejectedf("unexpected status %d", resp.StatusCode)
	}

	name := m.targetName(e, resp)
	final, part, err := m.reserve(name)
	if err != nil {
		return "", err
	}
	m.setPath(e, final)

	f, err := os.Create(part)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "create partial file")
	}
	_, err = io.Copy(f, &countingReader{r: resp.Body, n: &e.bytes})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		_ = os.Remove(part)
		m.release(final)
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "write body")
	}
	if err := os.Rename(part, final); err != nil {
		_ = os.Remove(part)
		m.release(final)
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "finalize file")
	}
	m.release(final)
	return final, nil
}

// targetName prefers the submitted name, then Content-Disposition, then the URL path
func (m *Manager) targetName(e *entry, resp *http.Response) string {
	if !pstrings.Blank(e.d.Filename) {
		return filename.Sanitize(e.d.Filename)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if name, ok := filename.FromDisposition(cd); ok {
			return filename.Sanitize(name)
		}
	}
	if u, err := url.Parse(e.d.URL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			return filename.Sanitize(base)
		}
	}
	return filename.Fallback
}

// reserve picks "name", "name (1)", ... so that neither the final file nor
// another in-flight transfer already owns it
func (m *Manager) reserve(name string) (final, part string, err error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; i < 1000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		final = filepath.Join(m.dir, candidate)
		if _, err := os.Stat(final); err == nil {
			continue
		}
		if _, taken := m.reserved.LoadOrStore(final, struct{}{}); taken {
			continue
		}
		return final, final + partSuffix, nil
	}
	return "", "", perr.Conflictf("no free file name for %s", name)
}

func (m *Manager) release(final string) { m.reserved.Delete(final) }

func (m *Manager) setPath(e *entry, p string) {
	m.mu.Lock()
	e.d.Path = p
	m.mu.Unlock()
}

func (m *Manager) finish(e *entry, s State, p, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.d.UpdatedAt = m.now().UTC()
	if e.d.State != StateInProgress {
		// cancelled meanwhile; a file that still landed stays visible
		e.d.Path = ""
		if s == StateComplete {
			e.d.Path = p
		}
		return
	}
	e.d.State = s
	e.d.Path = p
	e.d.Error = msg
}

type countingReader struct {
	r io.Reader
	n *atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}
