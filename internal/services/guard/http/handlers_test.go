package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dlguard/internal/adapters/host/local"
	"dlguard/internal/adapters/notify"
	"dlguard/internal/core/loopguard"
	phttp "dlguard/internal/platform/net/http"

	dom "dlguard/internal/services/guard/domain"

	"github.com/go-chi/chi/v5"
)

type fakeGuard struct{ st loopguard.State }

func (g fakeGuard) OnCreated(context.Context, dom.DownloadEvent) loopguard.Decision {
	return loopguard.Admitted
}
func (g fakeGuard) State() loopguard.State { return g.st }
func (g fakeGuard) Wait()                  {}

type fakeScanner struct{ got []string }

func (s *fakeScanner) Scan(_ context.Context, urls []string) []dom.ScanResult {
	s.got = urls
	out := make([]dom.ScanResult, 0, len(urls))
	for _, u := range urls {
		r := dom.ScanResult{URL: u, Filename: "f.bin"}
		if strings.Contains(u, "bad") {
			r.IsMalicious = true
		}
		if strings.Contains(u, "down") {
			r.Error = "analysis service error"
		}
		out = append(out, r)
	}
	return out
}

type fixture struct {
	mux     stdhttp.Handler
	host    *local.Manager
	hub     *notify.Hub
	scanner *fakeScanner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	host, err := local.NewManager(local.Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = host.Close() })
	f := &fixture{host: host, hub: notify.NewHub(10), scanner: &fakeScanner{}}

	r := phttp.AdaptChi(chi.NewRouter())
	Register(r, Deps{
		Guard:         fakeGuard{st: loopguard.State{Pending: []string{"https://x.test/a.exe"}, SkipNext: []string{}}},
		Scanner:       f.scanner,
		Downloads:     host,
		Notifications: f.hub,
	})
	f.mux = r.Mux()
	return f
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Error      string          `json:"error"`
	Field      string          `json:"field"`
	Data       json.RawMessage `json:"data"`
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var req *stdhttp.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, env
}

func TestGuardState(t *testing.T) {
	f := newFixture(t)
	code, env := f.do(t, "GET", "/guard/state", "")
	if code != 200 {
		t.Fatalf("status = %d", code)
	}
	var st loopguard.State
	_ = json.Unmarshal(env.Data, &st)
	if len(st.Pending) != 1 || st.Pending[0] != "https://x.test/a.exe" || st.SkipNext == nil {
		t.Fatalf("state = %s", env.Data)
	}
}

func TestGuardScan(t *testing.T) {
	f := newFixture(t)
	code, env := f.do(t, "POST", "/guard/scan",
		`{"urls":["https://m.test/ok.pdf","https://m.test/bad.doc","https://m.test/down.zip"]}`)
	if code != 200 {
		t.Fatalf("status = %d", code)
	}
	var out dom.ScanOutput
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 3 {
		t.Fatalf("results = %+v", out.Results)
	}
	if out.Results["https://m.test/ok.pdf"].IsMalicious || !out.Results["https://m.test/bad.doc"].IsMalicious {
		t.Fatalf("results = %+v", out.Results)
	}
	if out.Results["https://m.test/down.zip"].Error == "" {
		t.Fatalf("results = %+v", out.Results)
	}
}

func TestGuardScan_Validation(t *testing.T) {
	f := newFixture(t)
	for _, body := range []string{
		`{"urls":[]}`,
		`{}`,
		`{"urls":["not a url"]}`,
		`{"urls":["https://m.test/a"],"extra":1}`,
		``,
	} {
		code, env := f.do(t, "POST", "/guard/scan", body)
		if code != 400 {
			t.Fatalf("%s: status = %d", body, code)
		}
		if env.Error == "" {
			t.Fatalf("%s: no error message", body)
		}
	}
	if f.scanner.got != nil {
		t.Fatal("scanner called for invalid input")
	}
}

func TestDownloads_StartInterceptedAndList(t *testing.T) {
	f := newFixture(t)
	f.host.Subscribe(func(ctx context.Context, ev dom.DownloadEvent) {
		_ = f.host.Cancel(ctx, ev.ID)
		_ = f.host.Erase(ctx, ev.ID)
	})

	code, env := f.do(t, "POST", "/downloads", `{"url":"https://files.test/setup.exe"}`)
	if code != 202 {
		t.Fatalf("status = %d %s", code, env.Error)
	}
	var out dom.StartOutput
	_ = json.Unmarshal(env.Data, &out)
	if out.ID == "" || out.URL != "https://files.test/setup.exe" || !out.Intercepted {
		t.Fatalf("out = %+v", out)
	}

	code, env = f.do(t, "GET", "/downloads", "")
	if code != 200 || string(env.Data) != "[]" {
		t.Fatalf("list = %d %s", code, env.Data)
	}
	if code, _ := f.do(t, "GET", "/downloads/"+out.ID, ""); code != 404 {
		t.Fatalf("get intercepted = %d", code)
	}
}

func TestDownloads_GetAndDelete(t *testing.T) {
	srv := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()
	f := newFixture(t)

	code, env := f.do(t, "POST", "/downloads", `{"url":"`+srv.URL+`/notes.txt"}`)
	if code != 202 {
		t.Fatalf("status = %d %s", code, env.Error)
	}
	var out dom.StartOutput
	_ = json.Unmarshal(env.Data, &out)
	if out.Intercepted {
		t.Fatal("no subscriber, nothing should intercept")
	}
	f.host.Wait()

	code, env = f.do(t, "GET", "/downloads/"+out.ID, "")
	if code != 200 {
		t.Fatalf("get = %d", code)
	}
	var d local.Download
	_ = json.Unmarshal(env.Data, &d)
	if d.State != local.StateComplete {
		t.Fatalf("download = %+v", d)
	}

	if code, _ := f.do(t, "DELETE", "/downloads/"+out.ID, ""); code != 204 {
		t.Fatalf("delete = %d", code)
	}
	if code, _ := f.do(t, "DELETE", "/downloads/"+out.ID, ""); code != 404 {
		t.Fatalf("second delete = %d", code)
	}
}

func TestDownloads_Validation(t *testing.T) {
	f := newFixture(t)
	code, env := f.do(t, "POST", "/downloads", `{"url":"ftp://x.test/a"}`)
	if code != 400 || env.Field != "url" {
		t.Fatalf("status = %d field = %q", code, env.Field)
	}
	long := strings.Repeat("a", 300)
	code, env = f.do(t, "POST", "/downloads", `{"url":"https://x.test/a","filename":"`+long+`"}`)
	if code != 400 || env.Field != "filename" {
		t.Fatalf("status = %d field = %q", code, env.Field)
	}
}

func TestNotificationsHistory(t *testing.T) {
	f := newFixture(t)
	code, env := f.do(t, "GET", "/notifications", "")
	if code != 200 || string(env.Data) != "[]" {
		t.Fatalf("empty history = %d %s", code, env.Data)
	}

	f.hub.Emit(context.Background(), dom.Notification{ID: "n1", Outcome: dom.OutcomeBlocked, Filename: "a.exe"})
	_, env = f.do(t, "GET", "/notifications", "")
	var got []dom.Notification
	_ = json.Unmarshal(env.Data, &got)
	if len(got) != 1 || got[0].ID != "n1" {
		t.Fatalf("history = %s", env.Data)
	}
}

func TestNotificationsWS_RequiresUpgrade(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, httptest.NewRequest("GET", "/notifications/ws", nil))
	if rec.Code != 400 {
		t.Fatalf("status = %d", rec.Code)
	}
}
