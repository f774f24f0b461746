package upload_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aiton-rag/uploadui/pkg/upload"
)

type recordingStore struct {
	saved  []string
	saveFn func(filename string, r io.Reader) (string, error)
}

func (s *recordingStore) Save(_ context.Context, filename, _ string, _ int64, r io.Reader) (string, error) {
	s.saved = append(s.saved, filename)
	if s.saveFn != nil {
		return s.saveFn(filename, r)
	}
	return "temp123", nil
}

func (s *recordingStore) Claim(context.Context, string) (*upload.File, error) {
	return nil, upload.ErrNotFound
}

func (s *recordingStore) Open(context.Context, string) (*upload.File, error) {
	return nil, upload.ErrNotFound
}

func (s *recordingStore) Remove(context.Context, string) error { return nil }

func (s *recordingStore) Cleanup(context.Context, time.Duration) error { return nil }

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/_upload/stage", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeStage(t *testing.T, rec *httptest.ResponseRecorder) upload.StageResponse {
	t.Helper()
	var body upload.StageResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestHandler_Stages(t *testing.T) {
	store := &recordingStore{}
	rec := httptest.NewRecorder()
	upload.Handler(store).ServeHTTP(rec, multipartRequest(t, "file", "report.pdf", []byte("pdf")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeStage(t, rec); got.TempID != "temp123" {
		t.Errorf("temp_id = %q", got.TempID)
	}
	if len(store.saved) != 1 || store.saved[0] != "report.pdf" {
		t.Errorf("saved = %v", store.saved)
	}
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		store  *recordingStore
		status int
	}{
		{
			name:   "method",
			req:    func(*testing.T) *http.Request { return httptest.NewRequest(http.MethodGet, "/_upload/stage", nil) },
			status: http.StatusMethodNotAllowed,
		},
		{
			name: "not multipart",
			req: func(*testing.T) *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/_upload/stage", strings.NewReader("plain"))
				r.Header.Set("Content-Type", "text/plain")
				return r
			},
			status: http.StatusBadRequest,
		},
		{
			name:   "wrong field",
			req:    func(t *testing.T) *http.Request { return multipartRequest(t, "document", "a.pdf", []byte("x")) },
			status: http.StatusBadRequest,
		},
		{
			name:   "too large",
			req:    func(t *testing.T) *http.Request { return multipartRequest(t, "file", "a.pdf", bytes.Repeat([]byte("x"), 300<<10)) },
			status: http.StatusRequestEntityTooLarge,
		},
		{
			name: "store too large",
			req:  func(t *testing.T) *http.Request { return multipartRequest(t, "file", "a.pdf", []byte("x")) },
			store: &recordingStore{saveFn: func(string, io.Reader) (string, error) {
				return "", upload.ErrTooLarge
			}},
			status: http.StatusRequestEntityTooLarge,
		},
		{
			name: "store failure",
			req:  func(t *testing.T) *http.Request { return multipartRequest(t, "file", "a.pdf", []byte("x")) },
			store: &recordingStore{saveFn: func(string, io.Reader) (string, error) {
				return "", errors.New("disk full")
			}},
			status: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tt.store
			if store == nil {
				store = &recordingStore{}
			}
			h := upload.HandlerWithConfig(store, upload.HandlerConfig{MaxFileSize: 1024})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.req(t))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if body := decodeStage(t, rec); body.Error == "" || body.TempID != "" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}
