package web

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
)

func TestNames(t *testing.T) {
	names := Names()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "upload.css" || names[1] != "upload.js" {
		t.Fatalf("Names() = %v", names)
	}
}

func TestHandlerServesScript(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler(false).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/upload.js", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/javascript; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("nosniff header = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=0, must-revalidate" {
		t.Errorf("Cache-Control = %q", got)
	}
	if !strings.Contains(rec.Body.String(), "data-prevent-default") {
		t.Error("body does not look like the thin client")
	}
}

func TestScriptCoversDocumentTargets(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler(false).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/upload.js", nil))
	js := rec.Body.String()

	// Drops on <html> below a short body fall back to body's marker.
	for _, want := range []string{"document.documentElement", "!body.contains(el) && marked(body, type)"} {
		if !strings.Contains(js, want) {
			t.Errorf("script lacks %q", want)
		}
	}
	// A held selection survives re-renders.
	if !strings.Contains(js, `fresh.getAttribute("data-selected") !== old.files[0].name`) {
		t.Error("script rebuilds file inputs unconditionally")
	}
}

func TestHandlerStylesheet(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler(true).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/upload.css", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("dev Cache-Control = %q", got)
	}
	if !strings.Contains(rec.Body.String(), ".drag-over") {
		t.Error("stylesheet missing drag-over rule")
	}
}

func TestHandlerNotModified(t *testing.T) {
	h := Handler(false)
	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/upload.js", nil))
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	for _, inm := range []string{etag, `"other", W/` + etag, "*"} {
		req := httptest.NewRequest(http.MethodGet, "/upload.js", nil)
		req.Header.Set("If-None-Match", inm)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotModified {
			t.Errorf("If-None-Match %q: status = %d", inm, rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("If-None-Match %q: body written", inm)
		}
	}
}

func TestHandlerHeadAndMethods(t *testing.T) {
	h := Handler(false)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/upload.js", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("HEAD: status %d, body %d bytes", rec.Code, rec.Body.Len())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/upload.js", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST: status %d", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != "GET, HEAD" {
		t.Errorf("Allow = %q", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing.js", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing asset: status %d", rec.Code)
	}
}
