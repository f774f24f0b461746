package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/aiton-rag/uploadui/internal/config"
	"github.com/aiton-rag/uploadui/pkg/protocol"
	"github.com/aiton-rag/uploadui/pkg/upload"
)

type recordingUploader struct {
	mu      sync.Mutex
	uploads map[string][]byte
}

func (u *recordingUploader) Upload(ctx context.Context, f upload.SelectedFile) (*upload.Result, error) {
	rc, err := f.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	if u.uploads == nil {
		u.uploads = make(map[string][]byte)
	}
	u.uploads[f.Name] = data
	u.mu.Unlock()
	return &upload.Result{Success: true, Filename: f.Name}, nil
}

func (u *recordingUploader) Health(context.Context) (*upload.HealthResponse, error) {
	return &upload.HealthResponse{
		Success: true,
		Stats:   &upload.Stats{TotalProcessedFiles: 7, KnowledgeBaseCategories: 3},
	}, nil
}

func (u *recordingUploader) uploaded(name string) ([]byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	data, ok := u.uploads[name]
	return data, ok
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.Staging.Backend = config.BackendMemory
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts ...Option) (*App, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	opts = append([]Option{
		WithRegistry(reg),
		WithUploader(&recordingUploader{}),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	a, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})
	return a, reg
}

func stageRequest(t *testing.T, name string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/_upload/stage", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestApp_Page(t *testing.T) {
	a, _ := newTestApp(t, testConfig())

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`id="app"`,
		`id="uploadForm"`,
		`id="dropZone"`,
		`data-ws-path="/_uploadui/ws"`,
		`data-stage-path="/_upload/stage"`,
		`/static/upload.js`,
		`data-on-submit="true"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestApp_OperationalEndpoints(t *testing.T) {
	a, _ := newTestApp(t, testConfig())
	h := a.Handler()

	tests := []struct {
		path string
		want string
	}{
		{"/healthz", `{"status":"ok"}`},
		{"/static/upload.js", "WebSocket"},
		{"/static/upload.css", ".drop-zone"},
		{"/metrics", "uploadui_active_sessions"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body missing %q", tt.want)
			}
		})
	}
}

func TestApp_Stage(t *testing.T) {
	a, reg := newTestApp(t, testConfig())

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, stageRequest(t, "notes.txt", []byte("hello")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp upload.StageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TempID == "" {
		t.Fatal("missing temp_id")
	}

	f, err := a.store.Claim(context.Background(), resp.TempID)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	data, _ := io.ReadAll(f)
	f.Close()
	if string(data) != "hello" {
		t.Errorf("staged content = %q", data)
	}

	n, err := testutil.GatherAndCount(reg, "uploadui_staged_files_total")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("staged series = %d, want 1", n)
	}
}

func TestApp_StageRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Staging.RateLimit = 0.001
	cfg.Staging.RateBurst = 1
	a, _ := newTestApp(t, cfg)
	h := a.Handler()

	first := httptest.NewRecorder()
	h.ServeHTTP(first, stageRequest(t, "a.txt", []byte("a")))
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}

	second := httptest.NewRecorder()
	h.ServeHTTP(second, stageRequest(t, "b.txt", []byte("b")))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
}

func TestApp_StageCORS(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"https://kb.example.com"}
	a, _ := newTestApp(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/_upload/stage", nil)
	req.Header.Set("Origin", "https://kb.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://kb.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestApp_WebSocketUploadFlow(t *testing.T) {
	up := &recordingUploader{}
	a, _ := newTestApp(t, testConfig(), WithUploader(up))
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	// Stage the bytes over HTTP, as the browser client does.
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, stageRequest(t, "report.pdf", []byte("%PDF-1.7")))
	var staged upload.StageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &staged); err != nil || staged.TempID == "" {
		t.Fatalf("stage: %v %s", err, rec.Body.String())
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/_uploadui/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readUntil(t, conn, func(f *protocol.Frame) bool {
		return f.Type == protocol.FrameRender && strings.Contains(f.HTML, ">7</span>")
	})

	valid := true
	send(t, conn, protocol.Event{
		Type:   protocol.EventChange,
		Target: "file",
		Files:  []protocol.FileRef{{TempID: staged.TempID, Name: "report.pdf", Size: 8, Type: "application/pdf"}},
	})
	send(t, conn, protocol.Event{Type: protocol.EventSubmit, Target: "uploadForm", Valid: &valid})

	readUntil(t, conn, func(f *protocol.Frame) bool {
		return f.Type == protocol.FrameRender && strings.Contains(f.HTML, "File uploaded successfully: report.pdf")
	})
	data, ok := up.uploaded("report.pdf")
	if !ok || string(data) != "%PDF-1.7" {
		t.Errorf("uploaded = %q, %v", data, ok)
	}
}

func send(t *testing.T, conn *websocket.Conn, e protocol.Event) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": "event", "event": e}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(*protocol.Frame) bool) *protocol.Frame {
	t.Helper()
	for i := 0; i < 30; i++ {
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var f protocol.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
		if match(&f) {
			return &f
		}
	}
	t.Fatal("expected frame not received")
	return nil
}

func TestApp_CheckOrigin(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"https://kb.example.com"}
	a, _ := newTestApp(t, cfg)

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://example.com", true},
		{"https://kb.example.com", true},
		{"https://evil.example.net", false},
		{"://bad", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/_uploadui/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := a.checkOrigin(req); got != tt.want {
			t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestClientIP(t *testing.T) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	trusted := newProxyMatcher([]string{"10.0.0.0/8", "192.168.1.1", "bogus"}, discard)

	tests := []struct {
		name   string
		remote string
		xff    string
		proxy  *proxyMatcher
		want   string
	}{
		{"direct", "203.0.113.9:1234", "", trusted, "203.0.113.9"},
		{"untrusted peer ignores header", "203.0.113.9:1234", "198.51.100.1", trusted, "203.0.113.9"},
		{"trusted peer", "10.1.2.3:80", "198.51.100.1", trusted, "198.51.100.1"},
		{"right-most untrusted hop", "10.1.2.3:80", "198.51.100.1, 198.51.100.2, 192.168.1.1", trusted, "198.51.100.2"},
		{"all trusted", "10.1.2.3:80", "10.0.0.5", trusted, "10.0.0.5"},
		{"no matcher", "10.1.2.3:80", "198.51.100.1", nil, "10.1.2.3"},
		{"ipv6", "[2001:db8::1]:443", "", trusted, "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := clientIP(req, tt.proxy); got.String() != tt.want {
				t.Errorf("clientIP = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestIPLimiter_EvictsIdle(t *testing.T) {
	now := time.Unix(1000, 0)
	l := newIPLimiter(1, 1)
	l.now = func() time.Time { return now }

	if !l.allow("a") {
		t.Fatal("first request denied")
	}
	if l.allow("a") {
		t.Fatal("burst exceeded but allowed")
	}
	now = now.Add(time.Hour)
	if !l.allow("b") {
		t.Fatal("other IP denied")
	}
	if _, ok := l.limiters["a"]; ok {
		t.Error("idle limiter not evicted")
	}
}

func TestOpenStore(t *testing.T) {
	cfg := testConfig()
	store, err := openStore(cfg)
	if err != nil || store == nil {
		t.Fatalf("memory store: %v", err)
	}

	cfg.Staging.Backend = config.BackendDisk
	cfg.Staging.Dir = t.TempDir()
	if _, err := openStore(cfg); err != nil {
		t.Fatalf("disk store: %v", err)
	}

	cfg.Staging.Backend = config.BackendS3
	cfg.Staging.S3.Bucket = "staging"
	cfg.Staging.S3.Region = "us-east-1"
	if _, err := openStore(cfg); err != nil {
		t.Fatalf("s3 store: %v", err)
	}
}
