package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// DiskStore stages files on an afero filesystem: the OS in production,
// an in-memory filesystem in tests. Each upload is a blob named by its
// temp ID plus a JSON sidecar, so a restarted process can still claim
// files staged before it went down.
type DiskStore struct {
	fs      afero.Fs
	dir     string
	maxSize int64
	now     func() time.Time

	mu    sync.Mutex
	index map[string]stagedMeta
}

type stagedMeta struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewDiskStore stages files under dir on the OS filesystem.
// maxSize of 0 disables the size check.
func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	return NewDiskStoreFs(afero.NewOsFs(), dir, maxSize)
}

// NewDiskStoreFs is NewDiskStore over an arbitrary filesystem.
func NewDiskStoreFs(fsys afero.Fs, dir string, maxSize int64) (*DiskStore, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{fs: fsys, dir: dir, maxSize: maxSize, now: time.Now, index: map[string]stagedMeta{}}, nil
}

func (s *DiskStore) Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	if s.tooLarge(size) {
		return "", ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	n, err := s.writeBlob(s.blobPath(id), r)
	if err != nil {
		return "", err
	}
	meta := stagedMeta{Filename: filename, ContentType: contentType, Size: n, CreatedAt: s.now()}
	if err := s.writeSidecar(id, meta); err != nil {
		_ = s.fs.Remove(s.blobPath(id))
		return "", err
	}

	s.mu.Lock()
	s.index[id] = meta
	s.mu.Unlock()
	return id, nil
}

// writeBlob copies r to name, removing the partial file if the copy
// fails or exceeds maxSize.
func (s *DiskStore) writeBlob(name string, r io.Reader) (int64, error) {
	f, err := s.fs.Create(name)
	if err != nil {
		return 0, err
	}
	if s.maxSize > 0 {
		r = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.tooLarge(n) {
		err = ErrTooLarge
	}
	if err != nil {
		_ = s.fs.Remove(name)
		return 0, err
	}
	return n, nil
}

// Claim hands over the staged file. Closing the returned reader deletes
// the blob and its sidecar, so each temp ID can be claimed once.
func (s *DiskStore) Claim(ctx context.Context, tempID string) (*File, error) {
	f, err := s.open(ctx, tempID, true)
	if err != nil {
		return nil, err
	}
	f.Reader = &claimedFile{File: f.Reader.(afero.File), fs: s.fs, remove: []string{f.Path, s.sidecarPath(tempID)}}
	return f, nil
}

// Open reads the staged file and leaves it in place.
func (s *DiskStore) Open(ctx context.Context, tempID string) (*File, error) {
	return s.open(ctx, tempID, false)
}

func (s *DiskStore) open(ctx context.Context, tempID string, forget bool) (*File, error) {
	if !isStagingID(tempID) {
		return nil, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	meta, known := s.index[tempID]
	if forget {
		delete(s.index, tempID)
	}
	s.mu.Unlock()
	if !known {
		var err error
		if meta, err = s.readSidecar(tempID); err != nil {
			return nil, ErrNotFound
		}
	}

	blob := s.blobPath(tempID)
	f, err := s.fs.Open(blob)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, ErrNotFound
	case err != nil:
		return nil, err
	}
	return &File{
		ID:          tempID,
		Filename:    meta.Filename,
		ContentType: meta.ContentType,
		Size:        meta.Size,
		Path:        blob,
		Reader:      f,
	}, nil
}

// Remove deletes a staged file. Unknown IDs are not an error.
func (s *DiskStore) Remove(ctx context.Context, tempID string) error {
	if !isStagingID(tempID) {
		return nil
	}
	s.mu.Lock()
	delete(s.index, tempID)
	s.mu.Unlock()

	var errs []error
	for _, name := range []string{s.blobPath(tempID), s.sidecarPath(tempID)} {
		if err := s.fs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Cleanup forgets and deletes everything staged before now-maxAge,
// including sidecars and blobs left behind by a previous process.
func (s *DiskStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	for id, meta := range s.index {
		if meta.CreatedAt.Before(cutoff) {
			delete(s.index, id)
		}
	}
	s.mu.Unlock()

	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return err
	}
	for _, fi := range infos {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fi.IsDir() && fi.ModTime().Before(cutoff) {
			_ = s.fs.Remove(filepath.Join(s.dir, fi.Name()))
		}
	}
	return nil
}

func (s *DiskStore) tooLarge(n int64) bool { return s.maxSize > 0 && n > s.maxSize }

func (s *DiskStore) blobPath(id string) string    { return filepath.Join(s.dir, id) }
func (s *DiskStore) sidecarPath(id string) string { return filepath.Join(s.dir, id+".meta") }

func (s *DiskStore) writeSidecar(id string, meta stagedMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return afero.WriteFile(s.fs, s.sidecarPath(id), data, 0o644)
}

func (s *DiskStore) readSidecar(id string) (stagedMeta, error) {
	var meta stagedMeta
	data, err := afero.ReadFile(s.fs, s.sidecarPath(id))
	if err == nil {
		err = json.Unmarshal(data, &meta)
	}
	return meta, err
}

// isStagingID accepts only UUIDs, so IDs arriving over the wire cannot
// name paths outside the staging directory.
func isStagingID(id string) bool {
	if id == "" || strings.ContainsAny(id, `/\.`) {
		return false
	}
	return uuid.Validate(id) == nil
}

type claimedFile struct {
	afero.File
	fs     afero.Fs
	remove []string
}

func (c *claimedFile) Close() error {
	err := c.File.Close()
	for _, name := range c.remove {
		if rerr := c.fs.Remove(name); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) && err == nil {
			err = rerr
		}
	}
	return err
}
