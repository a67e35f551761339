package filename

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func offline() *Resolver { return NewResolver(Options{DisableProbe: true}) }

func TestResolve_Chain(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		url      string
		want     string
		src      Source
	}{
		{"declared wins", "C:\\dl\\setup.exe", "https://x.test/a.exe", "setup.exe", SourceDeclared},
		{"declared unix path", "/tmp/dl/a.tar.gz", "https://x.test/other", "a.tar.gz", SourceDeclared},
		{"declared blank ignored", "   ", "https://x.test/a.exe", "a.exe", SourcePath},
		{"declared separator only", "dir/", "https://x.test/a.exe", "a.exe", SourcePath},
		{"path", "", "https://x.test/a.exe", "a.exe", SourcePath},
		{"path decoded", "", "https://x.test/files/my%20doc.pdf", "my doc.pdf", SourcePath},
		{"path non ascii", "", "https://x.test/%EB%B3%B4%EA%B3%A0%EC%84%9C.hwp", "보고서.hwp", SourcePath},
		{"path dot first rejected", "", "https://x.test/.htaccess", "x_test.bin", SourceHost},
		{"path no dot", "", "https://x.test/download", "x_test.bin", SourceHost},
		{"query", "", "https://x.test/download?filename=report.pdf&x=1", "report.pdf", SourceQuery},
		{"query later param", "", "https://x.test/get?id=1&filename=a%20b.txt", "a b.txt", SourceQuery},
		{"query plus literal", "", "https://x.test/get?filename=a+b.txt", "a+b.txt", SourceQuery},
		{"query bad escape", "", "https://x.test/get?filename=%ZZ", "x_test.bin", SourceHost},
		{"query empty", "", "https://x.test/get?filename=&filename=b.txt", "b.txt", SourceQuery},
		{"host", "", "https://cdn.files.example.com/", "cdn_files_example_com.bin", SourceHost},
		{"host with port", "", "http://127.0.0.1:8080/", "127_0_0_1.bin", SourceHost},
		{"empty url", "", "", Fallback, SourceFallback},
		{"malformed url", "", "://::nope", Fallback, SourceFallback},
		{"relative url", "", "files/a.exe", Fallback, SourceFallback},
		{"no host", "", "file:///", Fallback, SourceFallback},
	}
	r := offline()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(context.Background(), tt.declared, tt.url)
			if got.Name != tt.want || got.Source != tt.src {
				t.Fatalf("Resolve(%q, %q) = %+v, want %q/%s", tt.declared, tt.url, got, tt.want, tt.src)
			}
		})
	}
}

func TestResolve_ProbeDisposition(t *testing.T) {
	var heads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("probe used %s", r.Method)
		}
		heads.Add(1)
		switch r.URL.Path {
		case "/named":
			w.Header().Set("Content-Disposition", `attachment; filename*=UTF-8''%EA%B3%84%EC%95%BD.pdf`)
		case "/gone.zip":
			w.Header().Set("Content-Disposition", `attachment; filename="ignored.pdf"`)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewResolver(Options{HTTPClient: srv.Client(), UserAgent: "dlguard-test"})

	got := r.Resolve(context.Background(), "", srv.URL+"/named")
	if got.Name != "계약.pdf" || got.Source != SourceDisposition {
		t.Fatalf("named: %+v", got)
	}

	got = r.Resolve(context.Background(), "", srv.URL+"/gone.zip")
	if got.Name != "gone.zip" || got.Source != SourcePath {
		t.Fatalf("error status should fall through to path, got %+v", got)
	}

	got = r.Resolve(context.Background(), "", srv.URL+"/plain?filename=q.txt")
	if got.Name != "q.txt" || got.Source != SourceQuery {
		t.Fatalf("no header should fall through, got %+v", got)
	}

	before := heads.Load()
	_ = r.Resolve(context.Background(), "declared.txt", srv.URL+"/named")
	if heads.Load() != before {
		t.Fatalf("declared name must not trigger a probe")
	}
}

func TestResolve_ProbeTimeoutIsAbsorbed(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	r := NewResolver(Options{ProbeTimeout: 50 * time.Millisecond})
	start := time.Now()
	got := r.Resolve(context.Background(), "", srv.URL+"/slow.iso")
	if got.Name != "slow.iso" || got.Source != SourcePath {
		t.Fatalf("got %+v", got)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("probe timeout not applied")
	}
}

func TestResolve_ProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	got := NewResolver(Options{ProbeTimeout: time.Second}).Resolve(context.Background(), "", addr+"/a.exe")
	if got.Name != "a.exe" {
		t.Fatalf("got %+v", got)
	}
}

func TestResolve_AlwaysNonBlank(t *testing.T) {
	r := offline()
	for _, u := range []string{"", " ", "/", "?", "#", "http://", "https://x.test/%", "mailto:a@b", strings.Repeat("/", 10)} {
		for _, d := range []string{"", "/", `\`, " / "} {
			if got := r.Resolve(context.Background(), d, u); strings.TrimSpace(got.Name) == "" {
				t.Fatalf("blank name for declared=%q url=%q", d, u)
			}
		}
	}
}
