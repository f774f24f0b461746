package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// FormField is the multipart field name the API reads the file from.
const FormField = "file"

// ErrNoContent is returned when a SelectedFile has no byte source.
var ErrNoContent = errors.New("upload: file has no content source")

// SelectedFile is one file picked by the user. It is immutable once
// selected and dropped after its upload completes.
type SelectedFile struct {
	// Name is the original filename as reported by the browser.
	Name string

	// Size is the file size in bytes as reported by the browser.
	Size int64

	// ContentType is the browser-reported MIME type (informational only).
	ContentType string

	// StagedID is the staging store temp ID, empty for unstaged files.
	StagedID string

	open    func(ctx context.Context) (io.ReadCloser, error)
	release func(ctx context.Context) error
}

// NewSelectedFile describes a file whose bytes are produced by open.
func NewSelectedFile(name string, size int64, contentType string, open func(ctx context.Context) (io.ReadCloser, error)) SelectedFile {
	return SelectedFile{Name: name, Size: size, ContentType: contentType, open: open}
}

// LocalFile describes a file on the local filesystem.
func LocalFile(path string) (SelectedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SelectedFile{}, err
	}
	if info.IsDir() {
		return SelectedFile{}, fmt.Errorf("upload: %s is a directory", path)
	}
	name := filepath.Base(path)
	return NewSelectedFile(name, info.Size(), mime.TypeByExtension(filepath.Ext(name)),
		func(context.Context) (io.ReadCloser, error) { return os.Open(path) },
	), nil
}

// StagedFile describes a file held in store under tempID. It can be
// opened any number of times until Release deletes the staged copy.
func StagedFile(store Store, tempID, name string, size int64, contentType string) SelectedFile {
	f := SelectedFile{Name: name, Size: size, ContentType: contentType, StagedID: tempID}
	if store != nil && tempID != "" {
		f.open = func(ctx context.Context) (io.ReadCloser, error) {
			staged, err := store.Open(ctx, tempID)
			if err != nil {
				return nil, err
			}
			return staged, nil
		}
		f.release = func(ctx context.Context) error {
			return store.Remove(ctx, tempID)
		}
	}
	return f
}

// Release frees whatever backs the file. It is a no-op for files that
// are not staged.
func (f SelectedFile) Release(ctx context.Context) error {
	if f.release == nil {
		return nil
	}
	return f.release(ctx)
}

// HasContent reports whether the file bytes can be opened.
func (f SelectedFile) HasContent() bool {
	return f.open != nil
}

// Open returns the file bytes. Callers must close the reader.
func (f SelectedFile) Open(ctx context.Context) (io.ReadCloser, error) {
	if f.open == nil {
		return nil, ErrNoContent
	}
	return f.open(ctx)
}

// Result is the API's answer to an upload: {success, filename?, error?}.
type Result struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Stats are the knowledge base counters reported by the health endpoint.
// Absent counters decode as zero.
type Stats struct {
	TotalProcessedFiles     int64 `json:"total_processed_files,omitempty"`
	KnowledgeBaseCategories int64 `json:"knowledge_base_categories,omitempty"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Success bool   `json:"success"`
	Stats   *Stats `json:"stats,omitempty"`
}

// FormatSize renders a byte count for humans ("2.0 MiB").
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytes))
}
