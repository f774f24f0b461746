package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Store holds staged files between the browser's staging POST and the
// controller's upload. Save returns a temp ID; Claim consumes it, while
// Open may be repeated until Remove.
type Store interface {
	// Save stores the file and returns a temp ID.
	Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (tempID string, err error)

	// Claim opens and removes a staged file. The staged copy is gone
	// once the returned File is closed.
	Claim(ctx context.Context, tempID string) (*File, error)

	// Open reads a staged file without consuming it.
	Open(ctx context.Context, tempID string) (*File, error)

	// Remove deletes a staged file. Removing an unknown ID is not an
	// error.
	Remove(ctx context.Context, tempID string) error

	// Cleanup removes staged files older than maxAge.
	Cleanup(ctx context.Context, maxAge time.Duration) error
}

// File is an opened or claimed staged file.
type File struct {
	ID          string
	Filename    string
	ContentType string
	Size        int64

	// Path is set by DiskStore, URL by S3Store when presigning succeeds.
	Path string
	URL  string

	Reader io.ReadCloser
}

// Read reads the staged bytes.
func (f *File) Read(p []byte) (int, error) {
	if f.Reader == nil {
		return 0, io.EOF
	}
	return f.Reader.Read(p)
}

// Close closes the reader. For a claimed file this also deletes the
// staged copy.
func (f *File) Close() error {
	if f.Reader != nil {
		return f.Reader.Close()
	}
	return nil
}

// StageResponse is the JSON body returned by the staging handler.
type StageResponse struct {
	TempID string `json:"temp_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// HandlerConfig configures the staging handler.
type HandlerConfig struct {
	// MaxFileSize bounds the request body. Default: MaxFileSize.
	MaxFileSize int64

	Logger *slog.Logger
}

// Handler returns the staging endpoint with default limits.
// It expects a multipart form with a "file" field and answers
// {"temp_id": "..."}.
func Handler(store Store) http.Handler {
	return HandlerWithConfig(store, HandlerConfig{})
}

// HandlerWithConfig returns the staging endpoint using cfg.
func HandlerWithConfig(store Store, cfg HandlerConfig) http.Handler {
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	// Multipart framing adds headers and boundaries around the file.
	const overhead = 64 << 10

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeStage(w, http.StatusMethodNotAllowed, StageResponse{Error: "method not allowed"})
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxSize+overhead)
		if err := r.ParseMultipartForm(maxSize + overhead); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeStage(w, http.StatusRequestEntityTooLarge, StageResponse{Error: "file too large"})
				return
			}
			writeStage(w, http.StatusBadRequest, StageResponse{Error: "failed to parse form"})
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile(FormField)
		if err != nil {
			writeStage(w, http.StatusBadRequest, StageResponse{Error: "no file provided"})
			return
		}
		defer file.Close()

		if header.Size > maxSize {
			writeStage(w, http.StatusRequestEntityTooLarge, StageResponse{Error: "file too large"})
			return
		}

		tempID, err := store.Save(r.Context(), header.Filename, header.Header.Get("Content-Type"), header.Size, file)
		if err != nil {
			if errors.Is(err, ErrTooLarge) {
				writeStage(w, http.StatusRequestEntityTooLarge, StageResponse{Error: "file too large"})
				return
			}
			logger.Error("staging failed", "file", header.Filename, "error", err)
			writeStage(w, http.StatusInternalServerError, StageResponse{Error: "staging failed"})
			return
		}

		logger.Debug("file staged", "file", header.Filename, "temp_id", tempID, "size", header.Size)
		writeStage(w, http.StatusOK, StageResponse{TempID: tempID})
	})
}

func writeStage(w http.ResponseWriter, status int, body StageResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
