package swaggerkit

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"dlguard/internal/core/version"
	phttp "dlguard/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func TestBuildSpec(t *testing.T) {
	var spec map[string]any
	if err := json.Unmarshal(buildSpec(openapiDoc), &spec); err != nil {
		t.Fatal(err)
	}
	if v := spec["info"].(map[string]any)["version"]; v != version.Info().Version {
		t.Fatalf("version = %v", v)
	}
	servers := spec["servers"].([]any)
	if servers[0].(map[string]any)["url"] != "/api/v1" {
		t.Fatalf("servers = %v", servers)
	}
	paths := spec["paths"].(map[string]any)
	for _, p := range []string{"/guard/state", "/guard/scan", "/downloads", "/downloads/{id}", "/notifications", "/notifications/ws"} {
		if _, ok := paths[p]; !ok {
			t.Fatalf("missing path %s", p)
		}
	}
	get := paths["/guard/state"].(map[string]any)["get"].(map[string]any)
	if _, ok := get["responses"].(map[string]any)["500"]; !ok {
		t.Fatal("default 500 response not added")
	}
	// path-level parameters are not operations and must survive untouched
	if _, ok := paths["/downloads/{id}"].(map[string]any)["parameters"].([]any); !ok {
		t.Fatal("path parameters mangled")
	}
}

func TestBuildSpec_InvalidInputPassesThrough(t *testing.T) {
	raw := []byte("{not json")
	if got := buildSpec(raw); string(got) != string(raw) {
		t.Fatalf("got %s", got)
	}
}

func TestMount(t *testing.T) {
	r := phttp.AdaptChi(chi.NewRouter())
	Mount(r, true)

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", "/api/docs/doc.json", nil))
	if rec.Code != 200 || rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("doc.json = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", "/api/docs", nil))
	if rec.Code != 308 {
		t.Fatalf("redirect = %d", rec.Code)
	}
}
