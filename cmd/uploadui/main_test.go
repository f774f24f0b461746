package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aiton-rag/uploadui/internal/config"
	"github.com/aiton-rag/uploadui/internal/errors"
	"github.com/aiton-rag/uploadui/pkg/upload"
)

type fakeAPI struct {
	mu       sync.Mutex
	uploaded []string
	fail     map[string]error
	health   *upload.HealthResponse
}

func (f *fakeAPI) Upload(_ context.Context, file upload.SelectedFile) (*upload.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[file.Name]; err != nil {
		return nil, err
	}
	f.uploaded = append(f.uploaded, file.Name)
	return &upload.Result{Success: true, Filename: file.Name}, nil
}

func (f *fakeAPI) Health(context.Context) (*upload.HealthResponse, error) {
	if f.health == nil {
		return nil, &upload.TransportError{Op: "health", Err: stderrors.New("connection refused")}
	}
	return f.health, nil
}

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, bytes.Repeat([]byte("x"), size), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func errorCode(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

func TestRunPush_SingleFile(t *testing.T) {
	dir := t.TempDir()
	api := &fakeAPI{}
	var out bytes.Buffer

	err := runPush(context.Background(), &out, config.New(), discardLogger(), api,
		[]string{writeFile(t, dir, "report.pdf", 64)}, false)
	if err != nil {
		t.Fatalf("runPush: %v", err)
	}
	if len(api.uploaded) != 1 || api.uploaded[0] != "report.pdf" {
		t.Errorf("uploaded = %v", api.uploaded)
	}
	if !strings.Contains(out.String(), "File uploaded successfully: report.pdf") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunPush_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		fail error
		want string
	}{
		{"unsupported", writeFile(t, dir, "image.png", 10), nil, "E130"},
		{"server", writeFile(t, dir, "bad.pdf", 10), &upload.ServerError{StatusCode: 200, Message: "too many pages"}, "E121"},
		{"transport", writeFile(t, dir, "down.pdf", 10), &upload.TransportError{Op: "upload", Err: stderrors.New("refused")}, "E120"},
		{"missing", filepath.Join(dir, "nope.pdf"), nil, "E131"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{fail: map[string]error{filepath.Base(tt.path): tt.fail}}
			err := runPush(context.Background(), io.Discard, config.New(), discardLogger(), api, []string{tt.path}, false)
			if got := errorCode(err); got != tt.want {
				t.Fatalf("code = %q (%v), want %s", got, err, tt.want)
			}
		})
	}
}

func TestRunPush_ManyFiles(t *testing.T) {
	dir := t.TempDir()
	api := &fakeAPI{
		fail:   map[string]error{"b.md": &upload.ServerError{StatusCode: 200, Message: "duplicate"}},
		health: &upload.HealthResponse{Success: true, Stats: &upload.Stats{TotalProcessedFiles: 12, KnowledgeBaseCategories: 4}},
	}
	var out bytes.Buffer

	err := runPush(context.Background(), &out, config.New(), discardLogger(), api, []string{
		writeFile(t, dir, "a.txt", 5),
		writeFile(t, dir, "b.md", 5),
	}, true)
	if got := errorCode(err); got != "E121" {
		t.Fatalf("code = %q (%v)", got, err)
	}

	text := out.String()
	for _, want := range []string{"Uploaded: a.txt", "Error: duplicate", "Total files:      12", "Total categories: 4"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRunStats(t *testing.T) {
	var out bytes.Buffer
	api := &fakeAPI{health: &upload.HealthResponse{Success: true, Stats: &upload.Stats{TotalProcessedFiles: 1234, KnowledgeBaseCategories: 5}}}
	if err := runStats(context.Background(), &out, config.New(), api); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "1,234") {
		t.Errorf("output = %q", out.String())
	}

	if err := runStats(context.Background(), io.Discard, config.New(), &fakeAPI{}); errorCode(err) != "E120" {
		t.Errorf("unreachable API: %v", err)
	}
	failing := &fakeAPI{health: &upload.HealthResponse{Success: false}}
	if err := runStats(context.Background(), io.Discard, config.New(), failing); errorCode(err) != "E121" {
		t.Errorf("failed health: %v", err)
	}
}

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()
	run := func(args ...string) error {
		root := newRootCmd()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs(append([]string{"--dir=" + dir}, args...))
		return root.Execute()
	}

	if err := run("init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !config.Exists(dir) {
		t.Fatal("uploadui.json not written")
	}
	if err := run("init"); err == nil {
		t.Fatal("second init should refuse to overwrite")
	}
	if err := run("init", "--force"); err != nil {
		t.Fatalf("init --force: %v", err)
	}
	if _, err := config.Load(dir); err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
}

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--short"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Errorf("version output = %q", out.String())
	}
}
