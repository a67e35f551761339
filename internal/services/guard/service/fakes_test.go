package service

import (
	"context"
	"errors"
	"sync"

	"dlguard/internal/adapters/analysis"
	"dlguard/internal/core/filename"
	"dlguard/internal/core/loopguard"
	"dlguard/internal/modkit"

	dom "dlguard/internal/services/guard/domain"
)

type fakeHost struct {
	mu        sync.Mutex
	cancelled []string
	erased    []string
	submits   []dom.SubmitRequest
	submitErr error
	subs      []func(context.Context, dom.DownloadEvent)
	// onSubmit runs inside Submit, before it returns
	onSubmit func(dom.SubmitRequest)
}

func (h *fakeHost) Cancel(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelled = append(h.cancelled, id)
	return nil
}

func (h *fakeHost) Erase(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.erased = append(h.erased, id)
	return nil
}

func (h *fakeHost) Submit(_ context.Context, req dom.SubmitRequest) (string, error) {
	h.mu.Lock()
	h.submits = append(h.submits, req)
	err, hook := h.submitErr, h.onSubmit
	h.mu.Unlock()
	if err != nil {
		return "", err
	}
	if hook != nil {
		hook(req)
	}
	return "resubmitted", nil
}

func (h *fakeHost) Subscribe(fn func(context.Context, dom.DownloadEvent)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, fn)
	return func() {
		h.mu.Lock()
		h.subs = nil
		h.mu.Unlock()
	}
}

func (h *fakeHost) fire(ctx context.Context, ev dom.DownloadEvent) {
	h.mu.Lock()
	subs := append([]func(context.Context, dom.DownloadEvent){}, h.subs...)
	h.mu.Unlock()
	for _, fn := range subs {
		fn(ctx, ev)
	}
}

func (h *fakeHost) snapshot() (cancelled, erased []string, submits []dom.SubmitRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.cancelled...), append([]string(nil), h.erased...), append([]dom.SubmitRequest(nil), h.submits...)
}

type taggedHost struct{ *fakeHost }

func (taggedHost) TagsOrigin() bool { return true }

type recordingNotifier struct {
	mu  sync.Mutex
	got []dom.Notification
}

func (n *recordingNotifier) Emit(_ context.Context, x dom.Notification) {
	n.mu.Lock()
	n.got = append(n.got, x)
	n.mu.Unlock()
}

func (n *recordingNotifier) all() []dom.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]dom.Notification(nil), n.got...)
}

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls []analysis.Request
	fn    func(ctx context.Context, url, name string) (analysis.Verdict, error)
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, url, name string) (analysis.Verdict, error) {
	a.mu.Lock()
	a.calls = append(a.calls, analysis.Request{URL: url, Filename: name})
	fn := a.fn
	a.mu.Unlock()
	if fn == nil {
		return analysis.Verdict{}, nil
	}
	return fn(ctx, url, name)
}

func (a *fakeAnalyzer) SafeCopyURL(name string) string { return "http://svc.test/download/" + name }

func (a *fakeAnalyzer) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func verdict(malicious bool) func(context.Context, string, string) (analysis.Verdict, error) {
	return func(context.Context, string, string) (analysis.Verdict, error) {
		return analysis.Verdict{IsMalicious: malicious}, nil
	}
}

var errBoom = errors.New("boom")

type rig struct {
	svc      *Svc
	host     *fakeHost
	notes    *recordingNotifier
	analyzer *fakeAnalyzer
	guard    *loopguard.Guard
}

func newRig(cfg Config, tagged bool) *rig {
	h := &fakeHost{}
	var host dom.Host = h
	if tagged {
		host = taggedHost{h}
	}
	r := &rig{
		host:     h,
		notes:    &recordingNotifier{},
		analyzer: &fakeAnalyzer{},
		guard:    loopguard.New(),
	}
	r.svc = New(modkit.Deps{}, cfg, Wiring{
		Host:     host,
		Notifier: r.notes,
		Analyzer: r.analyzer,
		Resolver: filename.NewResolver(filename.Options{DisableProbe: true}),
		Guard:    r.guard,
	})
	r.svc.newID = func() string { return "n-1" }
	return r
}
